package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

type Users struct {
	db *gorm.DB
}

func (u *Users) Create(ctx context.Context, user *models.User) error {
	return apperr.Translate(u.db.WithContext(ctx).Create(user).Error)
}

func (u *Users) Get(ctx context.Context, id int) (*models.User, error) {
	return u.take(u.db.WithContext(ctx).Where("id = ?", id))
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.take(u.db.WithContext(ctx).Where("email = ?", email))
}

// Update applies the profile patch and returns the updated user. A
// username or email already taken is ErrConflict.
func (u *Users) Update(ctx context.Context, id int, patch models.UserPatch) (*models.User, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, apperr.Validation("patch", "no valid fields to update")
	}
	res := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, apperr.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user")
	}
	return u.Get(ctx, id)
}

func (u *Users) take(q *gorm.DB) (*models.User, error) {
	var user models.User
	if err := q.Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Translate(err)
	}
	return &user, nil
}
