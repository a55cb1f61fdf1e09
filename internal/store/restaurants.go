package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

type Restaurants struct {
	db *gorm.DB
}

func (r *Restaurants) Create(ctx context.Context, restaurant *models.Restaurant) error {
	return apperr.Translate(r.db.WithContext(ctx).Create(restaurant).Error)
}

func (r *Restaurants) Get(ctx context.Context, id int) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("restaurant")
		}
		return nil, apperr.Translate(err)
	}
	return &restaurant, nil
}

// List returns restaurants matching filter, newest first.
func (r *Restaurants) List(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	q := r.db.WithContext(ctx).Model(&models.Restaurant{})
	if filter.City != "" {
		q = q.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(filter.City)+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.IsVerified != nil {
		q = q.Where("is_verified = ?", *filter.IsVerified)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", term, term)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var rows []models.Restaurant
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, apperr.Translate(err)
}

func (r *Restaurants) Update(ctx context.Context, id int, patch models.RestaurantPatch) (*models.Restaurant, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, apperr.Validation("patch", "no valid fields to update")
	}
	if err := r.update(ctx, id, cols); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *Restaurants) Verify(ctx context.Context, id, adminID int, at time.Time) (*models.Restaurant, error) {
	err := r.update(ctx, id, map[string]any{
		"is_verified": true,
		"verified_by": adminID,
		"verified_at": at,
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *Restaurants) update(ctx context.Context, id int, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return apperr.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("restaurant")
	}
	return nil
}

// Delete removes the restaurant; its facts and ratings go with it.
func (r *Restaurants) Delete(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Restaurant{})
	return res.RowsAffected > 0, apperr.Translate(res.Error)
}

// Pending lists unverified restaurants, newest first.
func (r *Restaurants) Pending(ctx context.Context) ([]models.Restaurant, error) {
	unverified := false
	return r.List(ctx, models.RestaurantFilter{IsVerified: &unverified})
}
