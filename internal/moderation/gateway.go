// Package moderation holds the admin-only workflow that verifies or removes
// crowd-submitted facts and restaurants.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

const kindRestaurant = "restaurant"

type Gateway struct {
	store       *store.Store
	logger      *slog.Logger
	maxAttempts int
	registerer  prometheus.Registerer
	metrics     *metrics
	now         func() time.Time
}

type GatewayOption func(*Gateway)

func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		g.maxAttempts = n
	}
}

func WithPromRegistry(reg prometheus.Registerer) GatewayOption {
	return func(g *Gateway) {
		g.registerer = reg
	}
}

func New(s *store.Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:       s,
		maxAttempts: 3,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g.metrics = newMetrics(g.registerer)
	return g
}

// requireAdmin loads the acting user and fails with ErrForbidden unless
// they are an admin.
func (g *Gateway) requireAdmin(ctx context.Context, userID int) error {
	user, err := g.store.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: unknown user", apperr.ErrUnauthorized)
		}
		return err
	}
	if user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	}
	return nil
}

func (g *Gateway) transact(ctx context.Context, op string, fn func(tx *store.Store) error) error {
	return g.store.TransactionRetry(ctx, g.maxAttempts, func(err error) {
		g.metrics.retries.WithLabelValues(op).Inc()
		g.logger.Debug("retrying transaction", "op", op, "error", err)
	}, fn)
}

// Approve verifies the fact on behalf of adminID. Approving a payment fact
// deletes any other verified fact for the same restaurant and payment type,
// so at most one stays verified. Writers on that key are serialized by the
// payment lock, which is always taken before the fact row lock.
func (g *Gateway) Approve(ctx context.Context, kind models.FactKind, factID, adminID int) (models.Fact, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("type", "invalid type")
	}
	if err := g.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var (
		out     models.Fact
		evicted []int
	)
	err := g.transact(ctx, "approve", func(tx *store.Store) error {
		evicted = evicted[:0]
		fact, err := tx.Facts.Get(ctx, kind, factID)
		if err != nil {
			return err
		}
		if pa, ok := fact.(*models.PaymentAcceptance); ok {
			if err := tx.LockKey(ctx, store.PaymentKey(pa.RestaurantID, pa.PaymentType)); err != nil {
				return err
			}
		}
		// re-read under the row lock; a concurrent reject may have won
		fact, err = tx.Facts.GetForUpdate(ctx, kind, factID)
		if err != nil {
			return err
		}
		if pa, ok := fact.(*models.PaymentAcceptance); ok {
			siblings, err := tx.Facts.VerifiedPaymentSiblings(ctx, pa.RestaurantID, pa.PaymentType, pa.ID)
			if err != nil {
				return err
			}
			for _, sib := range siblings {
				if err := deleteFact(ctx, tx, kind, sib.ID); err != nil {
					return err
				}
				evicted = append(evicted, sib.ID)
			}
		}
		if err := tx.Facts.MarkVerified(ctx, kind, factID, adminID, g.now()); err != nil {
			return err
		}
		out, err = tx.Facts.Get(ctx, kind, factID)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.metrics.approvals.WithLabelValues(string(kind)).Inc()
	g.metrics.evictions.Add(float64(len(evicted)))
	g.logger.Info("fact approved",
		"kind", kind,
		"id", factID,
		"admin_id", adminID,
		"evicted", evicted,
	)
	return out, nil
}

// Reject hard-deletes the fact and its votes. A missing fact is
// ErrNotFound.
func (g *Gateway) Reject(ctx context.Context, kind models.FactKind, factID, adminID int) (bool, error) {
	if !kind.Valid() {
		return false, apperr.Validation("type", "invalid type")
	}
	if err := g.requireAdmin(ctx, adminID); err != nil {
		return false, err
	}
	err := g.transact(ctx, "reject", func(tx *store.Store) error {
		if _, err := tx.Facts.GetForUpdate(ctx, kind, factID); err != nil {
			return err
		}
		return deleteFact(ctx, tx, kind, factID)
	})
	if err != nil {
		return false, err
	}
	g.metrics.rejections.WithLabelValues(string(kind)).Inc()
	g.logger.Info("fact rejected", "kind", kind, "id", factID, "admin_id", adminID)
	return true, nil
}

func deleteFact(ctx context.Context, tx *store.Store, kind models.FactKind, id int) error {
	if _, err := tx.Votes.DeleteForFact(ctx, kind, id); err != nil {
		return err
	}
	ok, err := tx.Facts.Delete(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(string(kind))
	}
	return nil
}

// ListPending returns every unverified restaurant, payment fact and cash
// discount, newest first.
func (g *Gateway) ListPending(ctx context.Context, adminID int) (models.Pending, error) {
	if err := g.requireAdmin(ctx, adminID); err != nil {
		return models.Pending{}, err
	}
	out := models.Pending{
		Restaurants:    []models.Restaurant{},
		PaymentMethods: []models.PendingPaymentMethod{},
		CashDiscounts:  []models.PendingCashDiscount{},
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		rows, err := g.store.Restaurants.Pending(ctx)
		if err != nil {
			return fmt.Errorf("pending restaurants: %w", err)
		}
		out.Restaurants = append(out.Restaurants, rows...)
		return nil
	})
	eg.Go(func() error {
		rows, err := g.store.Facts.PendingPaymentMethods(ctx)
		if err != nil {
			return fmt.Errorf("pending payment methods: %w", err)
		}
		out.PaymentMethods = append(out.PaymentMethods, rows...)
		return nil
	})
	eg.Go(func() error {
		rows, err := g.store.Facts.PendingCashDiscounts(ctx)
		if err != nil {
			return fmt.Errorf("pending cash discounts: %w", err)
		}
		out.CashDiscounts = append(out.CashDiscounts, rows...)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return models.Pending{}, err
	}
	return out, nil
}

// ApproveRestaurant marks a restaurant verified.
func (g *Gateway) ApproveRestaurant(ctx context.Context, id, adminID int) (*models.Restaurant, error) {
	if err := g.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	r, err := g.store.Restaurants.Verify(ctx, id, adminID, g.now())
	if err != nil {
		return nil, err
	}
	g.metrics.approvals.WithLabelValues(kindRestaurant).Inc()
	g.logger.Info("restaurant approved", "id", id, "admin_id", adminID)
	return r, nil
}

// RejectRestaurant deletes a restaurant together with its facts, votes and
// ratings.
func (g *Gateway) RejectRestaurant(ctx context.Context, id, adminID int) (bool, error) {
	if err := g.requireAdmin(ctx, adminID); err != nil {
		return false, err
	}
	ok, err := g.store.Restaurants.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.NotFound("restaurant")
	}
	g.metrics.rejections.WithLabelValues(kindRestaurant).Inc()
	g.logger.Info("restaurant rejected", "id", id, "admin_id", adminID)
	return true, nil
}
