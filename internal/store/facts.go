package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

// Facts is the fact store. All writes are single-statement.
type Facts struct {
	db *gorm.DB
}

func newFact(kind models.FactKind) (models.Fact, error) {
	fact := models.NewFact(kind)
	if fact == nil {
		return nil, apperr.Validation("kind", "unknown fact kind %q", kind)
	}
	return fact, nil
}

func notFound(kind models.FactKind) error {
	switch kind {
	case models.KindPaymentAcceptance:
		return apperr.NotFound("payment method")
	case models.KindCashDiscount:
		return apperr.NotFound("cash discount")
	}
	return apperr.NotFound("fact")
}

func (f *Facts) Create(ctx context.Context, fact models.Fact) error {
	if err := f.db.WithContext(ctx).Create(fact).Error; err != nil {
		return fmt.Errorf("create %s: %w", fact.Kind(), apperr.Translate(err))
	}
	return nil
}

func (f *Facts) Get(ctx context.Context, kind models.FactKind, id int) (models.Fact, error) {
	return f.get(f.db.WithContext(ctx), kind, id)
}

// GetForUpdate loads the fact and row-locks it until the transaction ends.
func (f *Facts) GetForUpdate(ctx context.Context, kind models.FactKind, id int) (models.Fact, error) {
	return f.get(forUpdate(f.db.WithContext(ctx)), kind, id)
}

func (f *Facts) get(db *gorm.DB, kind models.FactKind, id int) (models.Fact, error) {
	fact, err := newFact(kind)
	if err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", id).Take(fact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(kind)
		}
		return nil, apperr.Translate(err)
	}
	return fact, nil
}

// ListByRestaurant returns the restaurant's facts of one kind, highest
// confidence first. Inactive cash discounts are omitted.
func (f *Facts) ListByRestaurant(ctx context.Context, restaurantID int, kind models.FactKind) ([]models.Fact, error) {
	q := f.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("confidence_score DESC").
		Order("id ASC")
	switch kind {
	case models.KindPaymentAcceptance:
		var rows []models.PaymentAcceptance
		if err := q.Find(&rows).Error; err != nil {
			return nil, apperr.Translate(err)
		}
		return toFacts(rows), nil
	case models.KindCashDiscount:
		var rows []models.CashDiscount
		if err := q.Where("is_active = ?", true).Find(&rows).Error; err != nil {
			return nil, apperr.Translate(err)
		}
		return toFacts(rows), nil
	}
	return nil, apperr.Validation("kind", "unknown fact kind %q", kind)
}

func toFacts[T any, PT interface {
	*T
	models.Fact
}](rows []T) []models.Fact {
	out := make([]models.Fact, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out
}

// FindPendingPayment returns the oldest unverified proposal for the
// (restaurant, payment type) key, or nil if there is none.
func (f *Facts) FindPendingPayment(ctx context.Context, restaurantID int, paymentType models.PaymentType) (*models.PaymentAcceptance, error) {
	var rows []models.PaymentAcceptance
	err := forUpdate(f.db.WithContext(ctx)).
		Where("restaurant_id = ? AND payment_type = ? AND is_verified = ?", restaurantID, paymentType, false).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Translate(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// VerifiedPaymentSiblings returns verified facts for the same key other
// than excludeID.
func (f *Facts) VerifiedPaymentSiblings(ctx context.Context, restaurantID int, paymentType models.PaymentType, excludeID int) ([]models.PaymentAcceptance, error) {
	var rows []models.PaymentAcceptance
	err := forUpdate(f.db.WithContext(ctx)).
		Where("restaurant_id = ? AND payment_type = ? AND is_verified = ? AND id <> ?", restaurantID, paymentType, true, excludeID).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Translate(err)
	}
	return rows, nil
}

// Update applies an allow-listed patch and returns the fresh row.
func (f *Facts) Update(ctx context.Context, kind models.FactKind, id int, patch models.FactPatch) (models.Fact, error) {
	if patch == nil || patch.Kind() != kind {
		return nil, apperr.Validation("patch", "patch does not apply to %s", kind)
	}
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, apperr.Validation("patch", "no valid fields to update")
	}
	if err := f.updateColumns(ctx, kind, id, cols); err != nil {
		return nil, err
	}
	return f.Get(ctx, kind, id)
}

// SetTally stores the recounted tally and its score.
func (f *Facts) SetTally(ctx context.Context, kind models.FactKind, id int, tally models.Tally, score float64) error {
	return f.updateColumns(ctx, kind, id, map[string]any{
		"upvotes":          tally.Upvotes,
		"downvotes":        tally.Downvotes,
		"confidence_score": score,
	})
}

// MarkVerified flips the fact to verified on behalf of adminID.
func (f *Facts) MarkVerified(ctx context.Context, kind models.FactKind, id int, adminID int, at time.Time) error {
	return f.updateColumns(ctx, kind, id, map[string]any{
		"is_verified": true,
		"verified_by": adminID,
		"verified_at": at,
	})
}

func (f *Facts) updateColumns(ctx context.Context, kind models.FactKind, id int, cols map[string]any) error {
	fact, err := newFact(kind)
	if err != nil {
		return err
	}
	res := f.db.WithContext(ctx).Model(fact).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return apperr.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(kind)
	}
	return nil
}

// Delete hard-deletes the fact. It reports false when no row matched.
func (f *Facts) Delete(ctx context.Context, kind models.FactKind, id int) (bool, error) {
	fact, err := newFact(kind)
	if err != nil {
		return false, err
	}
	res := f.db.WithContext(ctx).Where("id = ?", id).Delete(fact)
	if res.Error != nil {
		return false, apperr.Translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// PendingPaymentMethods lists unverified payment facts, newest first.
func (f *Facts) PendingPaymentMethods(ctx context.Context) ([]models.PendingPaymentMethod, error) {
	var rows []models.PendingPaymentMethod
	err := f.pending(ctx, models.KindPaymentAcceptance).Scan(&rows).Error
	return rows, apperr.Translate(err)
}

// PendingCashDiscounts lists unverified cash discounts, newest first.
func (f *Facts) PendingCashDiscounts(ctx context.Context) ([]models.PendingCashDiscount, error) {
	var rows []models.PendingCashDiscount
	err := f.pending(ctx, models.KindCashDiscount).Scan(&rows).Error
	return rows, apperr.Translate(err)
}

func (f *Facts) pending(ctx context.Context, kind models.FactKind) *gorm.DB {
	return f.db.WithContext(ctx).
		Table(kind.Table()+" AS f").
		Select("f.*, r.name AS restaurant_name, u.username AS submitted_by_username").
		Joins("JOIN restaurants r ON r.id = f.restaurant_id").
		Joins("LEFT JOIN users u ON u.id = f.submitted_by").
		Where("f.is_verified = ?", false).
		Order("f.created_at DESC").
		Order("f.id DESC")
}
