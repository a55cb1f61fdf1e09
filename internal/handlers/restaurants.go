package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/moderation"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

type RestaurantHandler struct {
	store   *store.Store
	gateway *moderation.Gateway
	logger  *slog.Logger
}

func NewRestaurantHandler(s *store.Store, gateway *moderation.Gateway, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{store: s, gateway: gateway, logger: logger}
}

// GetRestaurants lists restaurants, newest first
func (h *RestaurantHandler) GetRestaurants(c *gin.Context) {
	filter := models.RestaurantFilter{
		City:     c.Query("city"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}
	if v, err := strconv.ParseBool(c.Query("is_verified")); err == nil {
		filter.IsVerified = &v
	}
	h.list(c, filter)
}

// Search matches name or address
func (h *RestaurantHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}
	h.list(c, models.RestaurantFilter{Search: q, Limit: queryInt(c, "limit", 10)})
}

func (h *RestaurantHandler) list(c *gin.Context, filter models.RestaurantFilter) {
	restaurants, err := h.store.Restaurants.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant by ID
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.store.Restaurants.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": r})
}

// CreateRestaurant adds an unverified restaurant (PROTECTED - registered users)
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	var input models.CreateRestaurantRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and address are required"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	r := models.Restaurant{
		Name:           input.Name,
		Address:        input.Address,
		City:           input.City,
		Province:       input.Province,
		PostalCode:     input.PostalCode,
		Phone:          input.Phone,
		Category:       input.Category,
		CuisineTags:    models.Tags(input.CuisineTags),
		WebsiteURL:     input.WebsiteURL,
		OperatingHours: input.OperatingHours,
		ImageURL:       input.ImageURL,
		DataSource:     "user",
		SubmittedBy:    &userID,
	}
	if err := h.store.Restaurants.Create(c.Request.Context(), &r); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("restaurant submitted", "id", r.ID, "submitted_by", userID)

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant created successfully",
		"restaurant": r,
	})
}

// UpdateRestaurant patches the editable columns (PROTECTED - registered users)
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.RestaurantPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.store.Restaurants.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Restaurant updated successfully",
		"restaurant": r,
	})
}

// VerifyRestaurant marks a restaurant verified (ADMIN)
func (h *RestaurantHandler) VerifyRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := h.gateway.ApproveRestaurant(c.Request.Context(), id, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Restaurant verified successfully",
		"restaurant": r,
	})
}

// DeleteRestaurant removes a restaurant and everything attached to it (ADMIN)
func (h *RestaurantHandler) DeleteRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	if _, err := h.gateway.RejectRestaurant(c.Request.Context(), id, adminID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted successfully"})
}

// PendingRestaurants lists unverified restaurants (ADMIN)
func (h *RestaurantHandler) PendingRestaurants(c *gin.Context) {
	unverified := false
	h.list(c, models.RestaurantFilter{IsVerified: &unverified})
}
