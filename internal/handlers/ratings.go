package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

type RatingHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewRatingHandler(s *store.Store, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{store: s, logger: logger}
}

// GetRatings returns the restaurant's ratings, newest first
func (h *RatingHandler) GetRatings(c *gin.Context) {
	restaurantID, ok := paramID(c, "restaurantId")
	if !ok {
		return
	}
	ratings, err := h.store.Ratings.ListByRestaurant(c.Request.Context(), restaurantID,
		queryInt(c, "limit", 10), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	c.JSON(http.StatusOK, ratings)
}

// GetUserRating returns the caller's rating of the restaurant, or null
func (h *RatingHandler) GetUserRating(c *gin.Context) {
	restaurantID, ok := paramID(c, "restaurantId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rating, err := h.store.Ratings.Get(c.Request.Context(), restaurantID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

// RateRestaurant creates or replaces the caller's rating (PROTECTED)
func (h *RatingHandler) RateRestaurant(c *gin.Context) {
	restaurantID, ok := paramID(c, "restaurantId")
	if !ok {
		return
	}
	var input models.RatingRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Rating < 1 || input.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rating := models.Rating{
		RestaurantID: restaurantID,
		UserID:       userID,
		Rating:       input.Rating,
		Comment:      input.Comment,
	}
	if err := h.store.Ratings.Upsert(c.Request.Context(), &rating); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}
