// Package store is the persistence layer for restaurants, facts and their
// vote ledgers. Every method reads current state from the database; nothing
// is cached in process.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

type Store struct {
	db *gorm.DB

	Facts       *Facts
	Votes       *Ledger
	Restaurants *Restaurants
	Users       *Users
	Ratings     *Ratings
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Facts:       &Facts{db: db},
		Votes:       &Ledger{db: db},
		Restaurants: &Restaurants{db: db},
		Users:       &Users{db: db},
		Ratings:     &Ratings{db: db},
	}
}

// DB exposes the underlying handle, mainly for tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. Any
// error returned by fn, or by the commit, rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	return apperr.Translate(err)
}

// TransactionRetry runs Transaction up to attempts times, starting over
// only while the failure is a retryable conflict. retried, if set, is
// called with the error that caused each restart.
func (s *Store) TransactionRetry(ctx context.Context, attempts int, retried func(error), fn func(tx *Store) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if retried != nil {
				retried(err)
			}
			if ctx.Err() != nil {
				return errors.Join(err, ctx.Err())
			}
		}
		err = s.Transaction(ctx, fn)
		if err == nil || !apperr.IsRetryable(err) {
			return err
		}
	}
	return err
}

// LockKey takes a lock on an arbitrary logical key that is held until the
// enclosing transaction ends. On postgres this is a transaction-scoped
// advisory lock; sqlite already serializes writers.
func (s *Store) LockKey(ctx context.Context, key string) error {
	if !isPostgres(s.db) {
		return nil
	}
	err := s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
	return apperr.Translate(err)
}

// PaymentKey names the lock shared by every writer that may create or
// verify a payment fact for (restaurantID, paymentType).
func PaymentKey(restaurantID int, paymentType models.PaymentType) string {
	return fmt.Sprintf("payment:%d:%s", restaurantID, paymentType)
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func forUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
