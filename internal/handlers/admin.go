package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/moderation"
)

const typeRestaurant = "restaurant"

var errInvalidType = apperr.Validation("type", "invalid type")

// AdminHandler serves the moderation queue. Every route is admin-only.
type AdminHandler struct {
	gateway *moderation.Gateway
	logger  *slog.Logger
}

func NewAdminHandler(gateway *moderation.Gateway, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{gateway: gateway, logger: logger}
}

// Pending returns everything awaiting review
func (h *AdminHandler) Pending(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	pending, err := h.gateway.ListPending(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// Approve verifies a restaurant, payment method or cash discount
func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	typ := c.Param("type")
	if typ == typeRestaurant {
		r, err := h.gateway.ApproveRestaurant(ctx, id, adminID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, r)
		return
	}
	kind := models.FactKind(typ)
	if !kind.Valid() {
		respondError(c, h.logger, errInvalidType)
		return
	}
	fact, err := h.gateway.Approve(ctx, kind, id, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, factJSON(fact))
}

// Reject deletes a restaurant, payment method or cash discount
func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var err error
	switch typ := c.Param("type"); {
	case typ == typeRestaurant:
		_, err = h.gateway.RejectRestaurant(ctx, id, adminID)
	case models.FactKind(typ).Valid():
		_, err = h.gateway.Reject(ctx, models.FactKind(typ), id, adminID)
	default:
		err = errInvalidType
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item rejected and deleted"})
}
