package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
		return
	}

	list, err := h.payments.PaymentsForUser(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if list == nil {
		list = []billing.Payment{}
	}

	c.JSON(http.StatusOK, list)
}

// GetPaymentStatus lets the owner poll one payment while the gateway
// notification is in flight.
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
		return
	}

	p, err := h.payments.PaymentByReference(c.Request.Context(), c.Param("ref"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != userID) {
		httpx.Fail(c, apperr.NotFoundErr("Payment not found"))
		return
	}
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"merchantReference": p.MerchantReference,
		"status":            p.Status,
		"amount":            p.Amount,
		"paymentMethod":     p.Method,
		"completedAt":       p.CompletedAt,
	})
}
