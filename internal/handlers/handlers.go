package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/consensus"
	"github.com/acejarvis/cash-or-card/backend/internal/middleware"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/moderation"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Auth          *AuthHandler
	Restaurant    *RestaurantHandler
	PaymentMethod *FactHandler
	CashDiscount  *FactHandler
	Rating        *RatingHandler
	Admin         *AdminHandler
}

// Deps are the services the handlers call into.
type Deps struct {
	Store   *store.Store
	Engine  *consensus.Engine
	Gateway *moderation.Gateway
	Auth    *middleware.Auth
	Logger  *slog.Logger
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		Auth:          NewAuthHandler(d.Store, d.Auth, d.Logger),
		Restaurant:    NewRestaurantHandler(d.Store, d.Gateway, d.Logger),
		PaymentMethod: NewFactHandler(models.KindPaymentAcceptance, d.Engine, d.Gateway, d.Logger),
		CashDiscount:  NewFactHandler(models.KindCashDiscount, d.Engine, d.Gateway, d.Logger),
		Rating:        NewRatingHandler(d.Store, d.Logger),
		Admin:         NewAdminHandler(d.Gateway, d.Logger),
	}
}

// respondError writes err as {"error": message} with its mapped status.
// Server-side failures are logged; their details never reach the client.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// paramID parses a positive integer path parameter, answering 400 if it is
// malformed.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// currentUser is the authenticated caller's id. Routes using it sit behind
// Authenticate, so a miss means the middleware chain is wrong.
func currentUser(c *gin.Context) (int, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}
