package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/database/dbtest"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation("discount_percentage", "out of range"), http.StatusBadRequest, "discount_percentage: out of range"},
		{apperr.NotFound("payment method"), http.StatusNotFound, "payment method not found"},
		{apperr.ErrForbidden, http.StatusForbidden, "you do not have permission to access this resource"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, dbtest.Logger(), tt.err)

		assert.Equal(t, tt.code, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.msg, body["error"])
	}
}

func TestParamID(t *testing.T) {
	for _, tc := range []struct {
		raw string
		ok  bool
	}{{"12", true}, {"0", false}, {"-3", false}, {"abc", false}} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}
		_, ok := paramID(c, "id")
		assert.Equal(t, tc.ok, ok, tc.raw)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

func TestFactJSON(t *testing.T) {
	desc := "cash only"
	cd := &models.CashDiscount{DiscountPercentage: 5, Description: &desc, IsActive: true}
	cd.ID = 3
	cd.Upvotes = 2
	out := factJSON(cd)
	assert.Equal(t, 3, out["id"])
	assert.Equal(t, 2, out["upvotes"])
	assert.InDelta(t, 5.0, out["discount_percentage"], 0)
	assert.NotContains(t, out, "payment_type")

	pa := &models.PaymentAcceptance{PaymentType: models.PaymentVisa, IsAccepted: true}
	out = factJSON(pa)
	assert.Equal(t, models.PaymentVisa, out["payment_type"])
	assert.NotContains(t, out, "discount_percentage")
}
