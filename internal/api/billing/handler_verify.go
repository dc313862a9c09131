package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/service/payments"
)

// VerifyPayment is the manual retry path: the frontend posts the assertion
// it received on redirect when the webhook has not landed yet.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var body struct {
		JWT   string `json:"jwt"`
		Token string `json:"token"`
	}
	if !httpx.BindJSON(c, &body) {
		return
	}

	form := make(map[string][]string)
	if body.JWT != "" {
		form["jwt"] = []string{body.JWT}
	}
	if body.Token != "" {
		form["token"] = []string{body.Token}
	}

	out, err := h.reconciler.Reconcile(c.Request.Context(), payments.Callback{
		Channel:    payments.ChannelManual,
		AuthHeader: c.GetHeader("Authorization"),
		Body:       form,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"merchantReference":         out.MerchantReference,
		"status":                    out.Status,
		"alreadyProcessed":          out.AlreadyProcessed,
		"requiresSubscriptionSetup": out.RequiresSubscriptionSetup,
	})
}
