package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

type Ratings struct {
	db *gorm.DB
}

// Upsert creates the user's rating or replaces their previous one.
func (r *Ratings) Upsert(ctx context.Context, rating *models.Rating) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(rating).Error
	return apperr.Translate(err)
}

// ListByRestaurant returns ratings newest first with the author's username.
func (r *Ratings) ListByRestaurant(ctx context.Context, restaurantID, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.Rating
	err := r.db.WithContext(ctx).
		Select("restaurant_ratings.*, users.username AS username").
		Joins("JOIN users ON users.id = restaurant_ratings.user_id").
		Where("restaurant_ratings.restaurant_id = ?", restaurantID).
		Order("restaurant_ratings.created_at DESC").
		Order("restaurant_ratings.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, apperr.Translate(err)
}

// Get returns the user's rating of the restaurant, or nil.
func (r *Ratings) Get(ctx context.Context, restaurantID, userID int) (*models.Rating, error) {
	var rows []models.Rating
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND user_id = ?", restaurantID, userID).
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
