package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/shared/apperr"
)

type cardBody struct {
	CardNumber     string `json:"cardNumber" binding:"required"`
	CardHolderName string `json:"cardHolderName" binding:"required"`
	ExpiryMonth    int    `json:"expiryMonth" binding:"required"`
	ExpiryYear     int    `json:"expiryYear" binding:"required"`
	CVV            string `json:"cvv" binding:"required"`
}

func (b cardBody) details() adumo.CardDetails {
	return adumo.CardDetails{
		Number:      b.CardNumber,
		HolderName:  b.CardHolderName,
		ExpiryMonth: b.ExpiryMonth,
		ExpiryYear:  b.ExpiryYear,
		CVV:         b.CVV,
	}
}

// TokenizeCard stores a card on file for the signed in investor.
func (h *Handler) TokenizeCard(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
		return
	}

	var body cardBody
	if !httpx.BindJSON(c, &body) {
		return
	}

	pm, err := h.subscriptions.SaveCard(c.Request.Context(), userID, body.details())
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, pm)
}

// CreateSubscriptionFromPayment sets up the monthly schedule after a
// completed deposit. Knowing the merchant reference is the capability.
func (h *Handler) CreateSubscriptionFromPayment(c *gin.Context) {
	var body struct {
		cardBody
		MerchantReference string `json:"merchantReference" binding:"required"`
		CollectionDay     int    `json:"collectionDay" binding:"gte=0,lte=28"`
	}
	if !httpx.BindJSON(c, &body) {
		return
	}

	res, err := h.subscriptions.CreateFromPayment(c.Request.Context(), payments.SubscriptionRequest{
		MerchantReference: body.MerchantReference,
		Card:              body.details(),
		CollectionDay:     body.CollectionDay,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}
