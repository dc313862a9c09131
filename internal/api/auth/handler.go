// Package auth exposes passwordless login by emailed one-time code.
package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	authsvc "ascendancy-backend/internal/service/auth"
)

type OTPFlow interface {
	RequestOTP(ctx context.Context, email, clientIP string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (*authsvc.Session, error)
}

type Handler struct {
	otp OTPFlow
}

func NewHandler(otp OTPFlow) *Handler {
	return &Handler{otp: otp}
}

// RequestOTP answers identically whether or not the address belongs to an
// investor, and whether or not the body parses.
func (h *Handler) RequestOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&input)

	msg, err := h.otp.RequestOTP(c.Request.Context(), input.Email, c.ClientIP())
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6,numeric"`
	}
	if !httpx.BindJSON(c, &input) {
		return
	}

	session, err := h.otp.VerifyOTP(c.Request.Context(), input.Email, input.Code)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
