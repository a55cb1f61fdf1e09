package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

// Ledger is the per-kind vote log. Each (fact, user) pair holds at most one
// vote; tallies are always recounted from the rows.
type Ledger struct {
	db *gorm.DB
}

// Get returns the user's vote on the fact, or nil if they have not voted.
func (l *Ledger) Get(ctx context.Context, kind models.FactKind, factID, userID int) (*models.Vote, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("kind", "unknown fact kind %q", kind)
	}
	var votes []models.Vote
	err := l.db.WithContext(ctx).
		Table(kind.VoteTable()).
		Where("fact_id = ? AND user_id = ?", factID, userID).
		Limit(1).
		Find(&votes).Error
	if err != nil {
		return nil, apperr.Translate(err)
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

// Cast records the user's vote. A repeat of the same type changes nothing;
// a different type flips the existing row. It returns the recounted tally.
func (l *Ledger) Cast(ctx context.Context, kind models.FactKind, factID, userID int, voteType models.VoteType) (models.Tally, error) {
	if !voteType.Valid() {
		return models.Tally{}, apperr.Validation("vote_type", "valid vote type (upvote/downvote) is required")
	}
	if err := l.requireFact(ctx, kind, factID); err != nil {
		return models.Tally{}, err
	}
	existing, err := l.Get(ctx, kind, factID, userID)
	if err != nil {
		return models.Tally{}, err
	}
	db := l.db.WithContext(ctx).Table(kind.VoteTable())
	switch {
	case existing == nil:
		vote := models.Vote{FactID: factID, UserID: userID, VoteType: voteType}
		if err := db.Create(&vote).Error; err != nil {
			return models.Tally{}, apperr.Translate(err)
		}
	case existing.VoteType != voteType:
		err := db.Where("id = ?", existing.ID).Updates(map[string]any{
			"vote_type":  voteType,
			"updated_at": l.db.NowFunc(),
		}).Error
		if err != nil {
			return models.Tally{}, apperr.Translate(err)
		}
	}
	return l.Count(ctx, kind, factID)
}

// Count tallies the ledger rows of a fact by vote type.
func (l *Ledger) Count(ctx context.Context, kind models.FactKind, factID int) (models.Tally, error) {
	var rows []struct {
		VoteType models.VoteType
		N        int
	}
	err := l.db.WithContext(ctx).
		Table(kind.VoteTable()).
		Select("vote_type, COUNT(*) AS n").
		Where("fact_id = ?", factID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return models.Tally{}, apperr.Translate(err)
	}
	var t models.Tally
	for _, r := range rows {
		switch r.VoteType {
		case models.Upvote:
			t.Upvotes = r.N
		case models.Downvote:
			t.Downvotes = r.N
		}
	}
	return t, nil
}

// DeleteForFact removes every vote on the fact.
func (l *Ledger) DeleteForFact(ctx context.Context, kind models.FactKind, factID int) (int64, error) {
	res := l.db.WithContext(ctx).
		Table(kind.VoteTable()).
		Where("fact_id = ?", factID).
		Delete(&models.Vote{})
	return res.RowsAffected, apperr.Translate(res.Error)
}

func (l *Ledger) requireFact(ctx context.Context, kind models.FactKind, factID int) error {
	if !kind.Valid() {
		return apperr.Validation("kind", "unknown fact kind %q", kind)
	}
	var n int64
	err := l.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", factID).Count(&n).Error
	if err != nil {
		return apperr.Translate(err)
	}
	if n == 0 {
		return notFound(kind)
	}
	return nil
}
