package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslatePostgresCodes(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		status    int
		retryable bool
	}{
		{"unique", "23505", http.StatusConflict, true},
		{"foreign key", "23503", http.StatusBadRequest, false},
		{"not null", "23502", http.StatusBadRequest, false},
		{"invalid text", "22P02", http.StatusBadRequest, false},
		{"serialization", "40001", http.StatusConflict, true},
		{"deadlock", "40P01", http.StatusConflict, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code}))
			assert.Equal(t, tt.status, Status(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestTranslateGormErrors(t *testing.T) {
	assert.ErrorIs(t, Translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Translate(gorm.ErrForeignKeyViolated), ErrForeignKey)
	assert.True(t, IsRetryable(Translate(gorm.ErrDuplicatedKey)))
	assert.True(t, IsValidation(Translate(fmt.Errorf("insert: %w", gorm.ErrCheckConstraintViolated))))
	assert.Equal(t, http.StatusBadRequest, Status(Translate(gorm.ErrCheckConstraintViolated)))
	assert.ErrorIs(t, Translate(errors.New("FOREIGN KEY constraint failed (787)")), ErrForeignKey)
	assert.Nil(t, Translate(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, Translate(plain))
	assert.Equal(t, http.StatusInternalServerError, Status(plain))
	assert.Equal(t, "internal server error", Message(plain))
}

func TestValidationMessage(t *testing.T) {
	err := Validation("discount_percentage", "must be between 0 and 100, got %v", 150)
	assert.True(t, IsValidation(fmt.Errorf("submit: %w", err)))
	assert.Equal(t, "discount_percentage: must be between 0 and 100, got 150", Message(err))
	assert.Equal(t, http.StatusBadRequest, Status(err))
}

func TestNotFound(t *testing.T) {
	err := NotFound("payment method")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "payment method not found", Message(err))
}

func TestTranslateLeavesKnownErrors(t *testing.T) {
	nf := NotFound("fact")
	assert.Same(t, nf, Translate(nf))
	conflict := Translate(gorm.ErrDuplicatedKey)
	assert.Same(t, conflict, Translate(conflict))
}
