// Package consensus turns submissions and votes into scored facts. Every
// write runs in one transaction: the fact row is locked, the vote ledger is
// recounted and the new score is stored alongside the tally.
package consensus

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/scoring"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

const defaultMaxAttempts = 3

type Engine struct {
	store       *store.Store
	scorer      scoring.Scorer
	logger      *slog.Logger
	maxAttempts int
	registerer  prometheus.Registerer
	metrics     *metrics
}

type EngineOption func(*Engine)

func WithScorer(s scoring.Scorer) EngineOption {
	return func(e *Engine) {
		e.scorer = s
	}
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxAttempts bounds how often a conflicting transaction is re-run.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

func WithPromRegistry(reg prometheus.Registerer) EngineOption {
	return func(e *Engine) {
		e.registerer = reg
	}
}

func New(s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       s,
		scorer:      scoring.Default,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = 1
	}
	e.metrics = newMetrics(e.registerer)
	return e
}

// Scorer returns the scoring strategy in use.
func (e *Engine) Scorer() scoring.Scorer {
	return e.scorer
}

func (e *Engine) transact(ctx context.Context, op string, fn func(tx *store.Store) error) error {
	start := time.Now()
	defer func() {
		e.metrics.txDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()
	return e.store.TransactionRetry(ctx, e.maxAttempts, func(err error) {
		e.metrics.retries.WithLabelValues(op).Inc()
		e.logger.Debug("retrying transaction", "op", op, "error", err)
	}, fn)
}

// Submit records a new fact for the restaurant. A payment submission that
// matches a pending proposal for the same payment type refines that
// proposal instead of adding a row. The submitter's upvote goes into the
// ledger like any other vote.
func (e *Engine) Submit(ctx context.Context, restaurantID int, sub models.Submission, submittedBy *int) (models.Fact, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}
	var (
		out     models.Fact
		outcome string
	)
	err := e.transact(ctx, "submit", func(tx *store.Store) error {
		var err error
		switch s := sub.(type) {
		case models.PaymentSubmission:
			out, outcome, err = e.submitPayment(ctx, tx, restaurantID, s, submittedBy)
		case models.CashDiscountSubmission:
			out, err = e.submitCashDiscount(ctx, tx, restaurantID, s, submittedBy)
			outcome = "created"
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.submissions.WithLabelValues(string(sub.Kind()), outcome).Inc()
	e.logger.Info("fact submitted",
		"kind", sub.Kind(),
		"id", out.Meta().ID,
		"restaurant_id", restaurantID,
		"outcome", outcome,
	)
	return out, nil
}

func validateSubmission(sub models.Submission) error {
	switch s := sub.(type) {
	case models.PaymentSubmission:
		if !s.PaymentType.Valid() {
			return apperr.Validation("payment_type", "invalid payment type %q", s.PaymentType)
		}
	case models.CashDiscountSubmission:
		return validatePercentage(s.DiscountPercentage)
	default:
		return apperr.Validation("kind", "unsupported submission %T", sub)
	}
	return nil
}

func validatePercentage(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return apperr.Validation("discount_percentage", "discount percentage must be between 0 and 100")
	}
	return nil
}

func (e *Engine) submitPayment(ctx context.Context, tx *store.Store, restaurantID int, s models.PaymentSubmission, submittedBy *int) (models.Fact, string, error) {
	kind := models.KindPaymentAcceptance
	if err := tx.LockKey(ctx, store.PaymentKey(restaurantID, s.PaymentType)); err != nil {
		return nil, "", err
	}
	pending, err := tx.Facts.FindPendingPayment(ctx, restaurantID, s.PaymentType)
	if err != nil {
		return nil, "", err
	}

	if pending != nil {
		accepted := s.IsAccepted
		if _, err := tx.Facts.Update(ctx, kind, pending.ID, models.PaymentPatch{IsAccepted: &accepted}); err != nil {
			return nil, "", err
		}
		if err := e.seedVote(ctx, tx, kind, pending.ID, submittedBy); err != nil {
			return nil, "", err
		}
		fact, err := tx.Facts.Get(ctx, kind, pending.ID)
		return fact, "refined", err
	}

	fact := &models.PaymentAcceptance{
		PaymentType: s.PaymentType,
		IsAccepted:  s.IsAccepted,
	}
	fact.RestaurantID = restaurantID
	fact.SubmittedBy = submittedBy
	created, err := e.create(ctx, tx, fact)
	return created, "created", err
}

func (e *Engine) submitCashDiscount(ctx context.Context, tx *store.Store, restaurantID int, s models.CashDiscountSubmission, submittedBy *int) (models.Fact, error) {
	fact := &models.CashDiscount{
		DiscountPercentage: s.DiscountPercentage,
		Description:        s.Description,
		IsActive:           true,
	}
	fact.RestaurantID = restaurantID
	fact.SubmittedBy = submittedBy
	return e.create(ctx, tx, fact)
}

func (e *Engine) create(ctx context.Context, tx *store.Store, fact models.Fact) (models.Fact, error) {
	fact.Meta().ConfidenceScore = e.scorer.Score(0, 0)
	if err := tx.Facts.Create(ctx, fact); err != nil {
		return nil, err
	}
	id := fact.Meta().ID
	if err := e.seedVote(ctx, tx, fact.Kind(), id, fact.Meta().SubmittedBy); err != nil {
		return nil, err
	}
	return tx.Facts.Get(ctx, fact.Kind(), id)
}

// seedVote records the submitter's implicit upvote. Anonymous submissions
// carry no vote.
func (e *Engine) seedVote(ctx context.Context, tx *store.Store, kind models.FactKind, factID int, userID *int) error {
	if userID == nil {
		return nil
	}
	tally, err := tx.Votes.Cast(ctx, kind, factID, *userID, models.Upvote)
	if err != nil {
		return err
	}
	return tx.Facts.SetTally(ctx, kind, factID, tally, e.scorer.Score(tally.Upvotes, tally.Downvotes))
}

// Vote casts or changes the user's vote and returns the fact with its
// recounted tally and score. Concurrent votes on one fact are serialized
// by the row lock taken before the ledger is touched.
func (e *Engine) Vote(ctx context.Context, kind models.FactKind, factID, userID int, voteType models.VoteType) (models.Fact, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("kind", "unknown fact kind %q", kind)
	}
	if !voteType.Valid() {
		return nil, apperr.Validation("vote_type", "valid vote type (upvote/downvote) is required")
	}
	var out models.Fact
	err := e.transact(ctx, "vote", func(tx *store.Store) error {
		if _, err := tx.Facts.GetForUpdate(ctx, kind, factID); err != nil {
			return err
		}
		tally, err := tx.Votes.Cast(ctx, kind, factID, userID, voteType)
		if err != nil {
			return err
		}
		score := e.scorer.Score(tally.Upvotes, tally.Downvotes)
		if err := tx.Facts.SetTally(ctx, kind, factID, tally, score); err != nil {
			return err
		}
		out, err = tx.Facts.Get(ctx, kind, factID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.votes.WithLabelValues(string(kind), string(voteType)).Inc()
	e.logger.Debug("vote recorded",
		"kind", kind,
		"fact_id", factID,
		"user_id", userID,
		"vote_type", voteType,
	)
	return out, nil
}

// GetUserVote returns the user's current vote on the fact, or nil.
func (e *Engine) GetUserVote(ctx context.Context, kind models.FactKind, factID, userID int) (*models.Vote, error) {
	return e.store.Votes.Get(ctx, kind, factID, userID)
}

// ListByRestaurant returns the restaurant's facts of one kind ordered by
// confidence, each with its total vote count.
func (e *Engine) ListByRestaurant(ctx context.Context, restaurantID int, kind models.FactKind) ([]models.FactWithVotes, error) {
	facts, err := e.store.Facts.ListByRestaurant(ctx, restaurantID, kind)
	if err != nil {
		return nil, err
	}
	out := make([]models.FactWithVotes, len(facts))
	for i, f := range facts {
		m := f.Meta()
		out[i] = models.FactWithVotes{Fact: f, TotalVotes: m.Upvotes + m.Downvotes}
	}
	return out, nil
}

// UpdateFact applies a typed patch. Votes and verification state are not
// patchable.
func (e *Engine) UpdateFact(ctx context.Context, kind models.FactKind, id int, patch models.FactPatch) (models.Fact, error) {
	if p, ok := patch.(models.CashDiscountPatch); ok && p.DiscountPercentage != nil {
		if err := validatePercentage(*p.DiscountPercentage); err != nil {
			return nil, err
		}
	}
	fact, err := e.store.Facts.Update(ctx, kind, id, patch)
	if err != nil {
		return nil, err
	}
	e.logger.Info("fact updated", "kind", kind, "id", id)
	return fact, nil
}
