package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/service/payments"
)

type intentBody struct {
	Tier          string `json:"tier" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	Amount        int64  `json:"amount" binding:"gte=0"`
	Name          string `json:"name" binding:"required,max=120"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required,max=32"`
}

// CreateIntent starts a payment and returns the hosted form the browser
// must submit.
func (h *Handler) CreateIntent(c *gin.Context) {
	var body intentBody
	if !httpx.BindJSON(c, &body) {
		return
	}

	resp, err := h.intents.Create(c.Request.Context(), payments.IntentRequest{
		Tier:   body.Tier,
		Method: body.PaymentMethod,
		Amount: body.Amount,
		Name:   body.Name,
		Email:  body.Email,
		Phone:  body.Phone,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
