package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acejarvis/cash-or-card/backend/internal/consensus"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/moderation"
)

// FactHandler serves one fact kind. Payment methods and cash discounts
// share the routes and differ only in payload and response keys.
type FactHandler struct {
	kind    models.FactKind
	engine  *consensus.Engine
	gateway *moderation.Gateway
	logger  *slog.Logger

	label  string
	single string
	plural string
}

func NewFactHandler(kind models.FactKind, engine *consensus.Engine, gateway *moderation.Gateway, logger *slog.Logger) *FactHandler {
	h := &FactHandler{kind: kind, engine: engine, gateway: gateway, logger: logger}
	switch kind {
	case models.KindPaymentAcceptance:
		h.label, h.single, h.plural = "Payment method", "paymentMethod", "paymentMethods"
	case models.KindCashDiscount:
		h.label, h.single, h.plural = "Cash discount", "cashDiscount", "cashDiscounts"
	}
	return h
}

// factJSON flattens a fact into its wire form.
func factJSON(f models.Fact) gin.H {
	m := f.Meta()
	out := gin.H{
		"id":               m.ID,
		"restaurant_id":    m.RestaurantID,
		"submitted_by":     m.SubmittedBy,
		"is_verified":      m.IsVerified,
		"verified_by":      m.VerifiedBy,
		"verified_at":      m.VerifiedAt,
		"upvotes":          m.Upvotes,
		"downvotes":        m.Downvotes,
		"confidence_score": m.ConfidenceScore,
		"created_at":       m.CreatedAt,
		"updated_at":       m.UpdatedAt,
	}
	switch v := f.(type) {
	case *models.PaymentAcceptance:
		out["payment_type"] = v.PaymentType
		out["is_accepted"] = v.IsAccepted
	case *models.CashDiscount:
		out["discount_percentage"] = v.DiscountPercentage
		out["description"] = v.Description
		out["is_active"] = v.IsActive
	}
	return out
}

// GetByRestaurant lists the restaurant's facts, most trusted first
func (h *FactHandler) GetByRestaurant(c *gin.Context) {
	restaurantID, ok := paramID(c, "restaurantId")
	if !ok {
		return
	}
	facts, err := h.engine.ListByRestaurant(c.Request.Context(), restaurantID, h.kind)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	responses := make([]gin.H, 0, len(facts))
	for _, f := range facts {
		row := factJSON(f.Fact)
		row["total_votes"] = f.TotalVotes
		responses = append(responses, row)
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(responses),
		h.plural: responses,
	})
}

// Submit records a new fact (PROTECTED - registered users)
func (h *FactHandler) Submit(c *gin.Context) {
	var input struct {
		RestaurantID       int                `json:"restaurantId"`
		PaymentType        models.PaymentType `json:"paymentType"`
		IsAccepted         *bool              `json:"isAccepted"`
		DiscountPercentage *float64           `json:"discountPercentage"`
		Description        *string            `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var sub models.Submission
	switch h.kind {
	case models.KindPaymentAcceptance:
		if input.RestaurantID == 0 || input.PaymentType == "" || input.IsAccepted == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantId, paymentType, and isAccepted are required"})
			return
		}
		sub = models.PaymentSubmission{PaymentType: input.PaymentType, IsAccepted: *input.IsAccepted}
	case models.KindCashDiscount:
		if input.RestaurantID == 0 || input.DiscountPercentage == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantId and discountPercentage are required"})
			return
		}
		sub = models.CashDiscountSubmission{DiscountPercentage: *input.DiscountPercentage, Description: input.Description}
	}

	fact, err := h.engine.Submit(c.Request.Context(), input.RestaurantID, sub, &userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": h.label + " submitted successfully",
		h.single:  factJSON(fact),
	})
}

// Vote casts or changes the caller's vote (PROTECTED - registered users)
func (h *FactHandler) Vote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		VoteType models.VoteType `json:"voteType"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || !input.VoteType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid voteType (upvote/downvote) is required"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fact, err := h.engine.Vote(c.Request.Context(), h.kind, id, userID, input.VoteType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Vote recorded successfully",
		h.single:  factJSON(fact),
	})
}

// GetUserVote returns the caller's vote, or null if they have not voted
func (h *FactHandler) GetUserVote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	vote, err := h.engine.GetUserVote(c.Request.Context(), h.kind, id, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// Update patches a cash discount (PROTECTED - registered users)
func (h *FactHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var patch models.FactPatch
	switch h.kind {
	case models.KindCashDiscount:
		var p models.CashDiscountPatch
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch = p
	case models.KindPaymentAcceptance:
		var p models.PaymentPatch
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch = p
	}

	fact, err := h.engine.UpdateFact(c.Request.Context(), h.kind, id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": h.label + " updated successfully",
		h.single:  factJSON(fact),
	})
}

// Verify approves the fact (ADMIN)
func (h *FactHandler) Verify(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	fact, err := h.gateway.Approve(c.Request.Context(), h.kind, id, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": h.label + " verified successfully",
		h.single:  factJSON(fact),
	})
}

// Delete rejects and removes the fact (ADMIN)
func (h *FactHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	if _, err := h.gateway.Reject(c.Request.Context(), h.kind, id, adminID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.label + " deleted successfully"})
}
