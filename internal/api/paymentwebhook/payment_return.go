package paymentwebhook

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/shared/apperr"
)

// PaymentReturn is where the gateway sends the investor's browser, by GET
// or POST. It never renders an error; it always redirects to the frontend.
func (h *Handler) PaymentReturn(c *gin.Context) {
	var body url.Values
	if c.Request.Method == http.MethodPost {
		raw, err := readBody(c)
		if err != nil {
			h.redirect(c, "/payment-failed", url.Values{"reason": {"invalid_request"}})
			return
		}
		if body, err = parseBody(c.ContentType(), raw); err != nil {
			h.redirect(c, "/payment-failed", url.Values{"reason": {"invalid_request"}})
			return
		}
	}

	out, err := h.reconciler.Reconcile(c.Request.Context(), payments.Callback{
		Channel:    payments.ChannelReturn,
		AuthHeader: c.GetHeader("Authorization"),
		Body:       body,
		Query:      c.Request.URL.Query(),
	})
	if err != nil {
		h.log.Warn("payment return rejected",
			zap.String("request_id", c.GetString(httpx.KeyRequestID)),
			zap.Error(err),
		)
		h.redirect(c, "/payment-failed", url.Values{"reason": {failureReason(err)}})
		return
	}

	path, q := returnTarget(out)
	h.redirect(c, path, q)
}

func returnTarget(out payments.Outcome) (string, url.Values) {
	switch {
	case out.Status == billing.StatusCompleted && out.RequiresSubscriptionSetup:
		return "/subscription-setup", url.Values{"ref": {out.MerchantReference}}
	case out.Status == billing.StatusCompleted:
		return "/login", url.Values{"payment": {"success"}}
	case out.Status == billing.StatusFailed:
		return "/payment-failed", url.Values{"ref": {out.MerchantReference}, "reason": {"declined"}}
	default:
		return "/payment-pending", url.Values{"ref": {out.MerchantReference}}
	}
}

func failureReason(err error) string {
	ae, ok := apperr.As(err)
	if !ok {
		return "error"
	}
	switch ae.Kind {
	case apperr.Unauthorized:
		return "verification_failed"
	case apperr.NotFound:
		return "unknown_payment"
	case apperr.Invalid:
		return "invalid_request"
	default:
		return string(ae.Kind)
	}
}

func (h *Handler) redirect(c *gin.Context, path string, q url.Values) {
	target := h.frontendURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}
