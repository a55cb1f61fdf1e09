package models

import "time"

// Rating is a user's 1..5 star rating of a restaurant. One per user.
type Rating struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	RestaurantID int       `gorm:"not null;uniqueIndex:ux_ratings_restaurant_user,priority:1" json:"restaurant_id"`
	UserID       int       `gorm:"not null;uniqueIndex:ux_ratings_restaurant_user,priority:2" json:"user_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `json:"comment"`
	Username     string    `gorm:"->;-:migration" json:"username,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Restaurant *Restaurant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User       *User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Rating) TableName() string { return "restaurant_ratings" }

type RatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
