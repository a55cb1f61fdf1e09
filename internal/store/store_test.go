package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/database/dbtest"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

func setup(t *testing.T, users int) (*store.Store, dbtest.Seed) {
	t.Helper()
	db := dbtest.Sqlite(t)
	return store.New(db), dbtest.SeedBasic(t, db, users)
}

func newPayment(restaurantID int, pt models.PaymentType, accepted bool) *models.PaymentAcceptance {
	f := &models.PaymentAcceptance{PaymentType: pt, IsAccepted: accepted}
	f.RestaurantID = restaurantID
	return f
}

func newDiscount(restaurantID int, pct float64, score float64) *models.CashDiscount {
	f := &models.CashDiscount{DiscountPercentage: pct, IsActive: true}
	f.RestaurantID = restaurantID
	f.ConfidenceScore = score
	return f
}

func TestFactsCreateGet(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()

	fact := newPayment(seed.Restaurant.ID, models.PaymentVisa, true)
	fact.SubmittedBy = &seed.Users[0].ID
	fact.Upvotes = 1
	require.NoError(t, s.Facts.Create(ctx, fact))
	require.NotZero(t, fact.ID)

	got, err := s.Facts.Get(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	pa, ok := got.(*models.PaymentAcceptance)
	require.True(t, ok)
	assert.Equal(t, models.PaymentVisa, pa.PaymentType)
	assert.True(t, pa.IsAccepted)
	assert.Equal(t, 1, pa.Upvotes)
	assert.False(t, pa.IsVerified)

	_, err = s.Facts.Get(ctx, models.KindCashDiscount, fact.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.Facts.Get(ctx, models.FactKind("rating"), fact.ID)
	assert.True(t, apperr.IsValidation(err))
}

func TestFactsCreateUnknownRestaurant(t *testing.T) {
	s, _ := setup(t, 0)
	err := s.Facts.Create(context.Background(), newPayment(4242, models.PaymentCash, true))
	assert.ErrorIs(t, err, apperr.ErrForeignKey)
}

func TestFactsListByRestaurantOrdersByConfidence(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()

	low := newDiscount(seed.Restaurant.ID, 5, 0.2)
	high := newDiscount(seed.Restaurant.ID, 10, 0.9)
	hidden := newDiscount(seed.Restaurant.ID, 15, 0.95)
	for _, f := range []*models.CashDiscount{low, high, hidden} {
		require.NoError(t, s.Facts.Create(ctx, f))
	}
	inactive := false
	_, err := s.Facts.Update(ctx, models.KindCashDiscount, hidden.ID, models.CashDiscountPatch{IsActive: &inactive})
	require.NoError(t, err)

	facts, err := s.Facts.ListByRestaurant(ctx, seed.Restaurant.ID, models.KindCashDiscount)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, high.ID, facts[0].Meta().ID)
	assert.Equal(t, low.ID, facts[1].Meta().ID)

	payments, err := s.Facts.ListByRestaurant(ctx, seed.Restaurant.ID, models.KindPaymentAcceptance)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestFactsUpdateAllowList(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()
	fact := newDiscount(seed.Restaurant.ID, 5, 0)
	require.NoError(t, s.Facts.Create(ctx, fact))

	pct := 7.5
	desc := "cash only after 9pm"
	updated, err := s.Facts.Update(ctx, models.KindCashDiscount, fact.ID, models.CashDiscountPatch{
		DiscountPercentage: &pct,
		Description:        &desc,
	})
	require.NoError(t, err)
	cd := updated.(*models.CashDiscount)
	assert.Equal(t, 7.5, cd.DiscountPercentage)
	require.NotNil(t, cd.Description)
	assert.Equal(t, desc, *cd.Description)
	assert.True(t, cd.IsActive)

	_, err = s.Facts.Update(ctx, models.KindCashDiscount, fact.ID, models.CashDiscountPatch{})
	assert.True(t, apperr.IsValidation(err))

	accepted := true
	_, err = s.Facts.Update(ctx, models.KindCashDiscount, fact.ID, models.PaymentPatch{IsAccepted: &accepted})
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Facts.Update(ctx, models.KindCashDiscount, 9999, models.CashDiscountPatch{DiscountPercentage: &pct})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFactsDelete(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()
	fact := newPayment(seed.Restaurant.ID, models.PaymentAmex, false)
	require.NoError(t, s.Facts.Create(ctx, fact))

	ok, err := s.Facts.Delete(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Facts.Delete(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFactsPendingAndSiblings(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()

	verified := newPayment(seed.Restaurant.ID, models.PaymentVisa, true)
	verified.IsVerified = true
	require.NoError(t, s.Facts.Create(ctx, verified))

	proposal := newPayment(seed.Restaurant.ID, models.PaymentVisa, false)
	proposal.SubmittedBy = &seed.Users[0].ID
	require.NoError(t, s.Facts.Create(ctx, proposal))

	pending, err := s.Facts.FindPendingPayment(ctx, seed.Restaurant.ID, models.PaymentVisa)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, proposal.ID, pending.ID)

	none, err := s.Facts.FindPendingPayment(ctx, seed.Restaurant.ID, models.PaymentDebit)
	require.NoError(t, err)
	assert.Nil(t, none)

	siblings, err := s.Facts.VerifiedPaymentSiblings(ctx, seed.Restaurant.ID, models.PaymentVisa, proposal.ID)
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	assert.Equal(t, verified.ID, siblings[0].ID)

	rows, err := s.Facts.PendingPaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, proposal.ID, rows[0].ID)
	assert.Equal(t, seed.Restaurant.Name, rows[0].RestaurantName)
	require.NotNil(t, rows[0].SubmittedByUsername)
	assert.Equal(t, seed.Users[0].Username, *rows[0].SubmittedByUsername)
}

func TestFactsMarkVerified(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()
	fact := newDiscount(seed.Restaurant.ID, 3, 0)
	require.NoError(t, s.Facts.Create(ctx, fact))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Facts.MarkVerified(ctx, models.KindCashDiscount, fact.ID, seed.Admin.ID, at))
	got, err := s.Facts.Get(ctx, models.KindCashDiscount, fact.ID)
	require.NoError(t, err)
	meta := got.Meta()
	assert.True(t, meta.IsVerified)
	require.NotNil(t, meta.VerifiedBy)
	assert.Equal(t, seed.Admin.ID, *meta.VerifiedBy)
	require.NotNil(t, meta.VerifiedAt)
	assert.True(t, at.Equal(*meta.VerifiedAt))

	err = s.Facts.MarkVerified(ctx, models.KindCashDiscount, 777, seed.Admin.ID, at)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()
	fact := newPayment(seed.Restaurant.ID, models.PaymentDebit, true)
	require.NoError(t, s.Facts.Create(ctx, fact))

	err := s.Transaction(ctx, func(tx *store.Store) error {
		require.NoError(t, tx.LockKey(ctx, "payment:1:debit"))
		if err := tx.Facts.SetTally(ctx, models.KindPaymentAcceptance, fact.ID, models.Tally{Upvotes: 9}, 0.9); err != nil {
			return err
		}
		return apperr.NotFound("something else")
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := s.Facts.Get(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Meta().Upvotes)
}

func TestPaymentKey(t *testing.T) {
	assert.Equal(t, "payment:42:visa", store.PaymentKey(42, models.PaymentVisa))
}

func TestTransactionRetryStopsOnPermanentError(t *testing.T) {
	s, _ := setup(t, 0)
	calls := 0
	err := s.TransactionRetry(context.Background(), 3, nil, func(tx *store.Store) error {
		calls++
		return apperr.NotFound("restaurant")
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestTransactionRetryRetriesConflicts(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()
	calls, retried := 0, 0
	err := s.TransactionRetry(ctx, 3, func(error) { retried++ }, func(tx *store.Store) error {
		calls++
		// a duplicate user is a retryable conflict
		dup := models.User{Username: "dup", Email: seed.Users[0].Email, Password: "x", Role: models.RoleUser}
		return tx.Users.Create(ctx, &dup)
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.True(t, apperr.IsRetryable(err))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retried)
}
