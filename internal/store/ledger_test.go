package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

func TestLedgerCast(t *testing.T) {
	s, seed := setup(t, 2)
	ctx := context.Background()
	fact := newPayment(seed.Restaurant.ID, models.PaymentCash, true)
	require.NoError(t, s.Facts.Create(ctx, fact))
	kind := models.KindPaymentAcceptance
	alice, bob := seed.Users[0].ID, seed.Users[1].ID

	tally, err := s.Votes.Cast(ctx, kind, fact.ID, alice, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{Upvotes: 1}, tally)

	// same type again is a no-op
	tally, err = s.Votes.Cast(ctx, kind, fact.ID, alice, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{Upvotes: 1}, tally)

	tally, err = s.Votes.Cast(ctx, kind, fact.ID, bob, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{Upvotes: 1, Downvotes: 1}, tally)

	// flipping moves the vote rather than adding one
	tally, err = s.Votes.Cast(ctx, kind, fact.ID, alice, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{Downvotes: 2}, tally)

	vote, err := s.Votes.Get(ctx, kind, fact.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.Downvote, vote.VoteType)

	var rows int64
	require.NoError(t, s.DB().Table(kind.VoteTable()).Where("fact_id = ?", fact.ID).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestLedgerCastErrors(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()
	fact := newDiscount(seed.Restaurant.ID, 10, 0)
	require.NoError(t, s.Facts.Create(ctx, fact))
	user := seed.Users[0].ID

	_, err := s.Votes.Cast(ctx, models.KindCashDiscount, fact.ID, user, models.VoteType("sideways"))
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Votes.Cast(ctx, models.KindCashDiscount, fact.ID+100, user, models.Upvote)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the payment ledger does not see cash discount ids
	_, err = s.Votes.Cast(ctx, models.KindPaymentAcceptance, fact.ID, user, models.Upvote)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLedgerGetMissing(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()
	fact := newDiscount(seed.Restaurant.ID, 10, 0)
	require.NoError(t, s.Facts.Create(ctx, fact))

	vote, err := s.Votes.Get(ctx, models.KindCashDiscount, fact.ID, seed.Users[0].ID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestLedgerDeleteForFact(t *testing.T) {
	s, seed := setup(t, 2)
	ctx := context.Background()
	fact := newDiscount(seed.Restaurant.ID, 10, 0)
	require.NoError(t, s.Facts.Create(ctx, fact))
	for _, u := range seed.Users {
		_, err := s.Votes.Cast(ctx, models.KindCashDiscount, fact.ID, u.ID, models.Upvote)
		require.NoError(t, err)
	}

	n, err := s.Votes.DeleteForFact(ctx, models.KindCashDiscount, fact.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	tally, err := s.Votes.Count(ctx, models.KindCashDiscount, fact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{}, tally)
}

func TestLedgerCascadesWithFact(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()
	fact := newPayment(seed.Restaurant.ID, models.PaymentDiscover, true)
	require.NoError(t, s.Facts.Create(ctx, fact))
	_, err := s.Votes.Cast(ctx, models.KindPaymentAcceptance, fact.ID, seed.Users[0].ID, models.Upvote)
	require.NoError(t, err)

	ok, err := s.Facts.Delete(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	require.True(t, ok)

	tally, err := s.Votes.Count(ctx, models.KindPaymentAcceptance, fact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{}, tally)
}
