package paymentwebhook

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/shared/apperr"
)

// SubscriptionWebhook receives recurring collection notices. These are
// plain JSON, so the HMAC signature is mandatory.
func (h *Handler) SubscriptionWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		httpx.Fail(c, apperr.ConfigurationErr(nil))
		return
	}

	raw, err := readBody(c)
	if err != nil {
		httpx.Fail(c, apperr.ValidationErr("Error reading request body", nil))
		return
	}

	if !adumo.VerifyWebhookSignature(h.webhookSecret, raw, c.GetHeader(adumo.SignatureHeader)) {
		httpx.Fail(c, apperr.AuthErr("Signature verification failed", nil))
		return
	}

	var n payments.CollectionNotice
	if err := json.Unmarshal(raw, &n); err != nil {
		httpx.Fail(c, apperr.ValidationErr("Malformed body", nil))
		return
	}

	out, err := h.collections.HandleCollection(c.Request.Context(), n, raw)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": out})
}
