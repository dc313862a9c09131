// Package httpx holds the small pieces every handler shares: error
// rendering and access to the authenticated session.
package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/shared/apperr"
)

// Context keys set by the request id and auth middleware.
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyRole      = "role"
	KeyTier      = "tier"
)

// Fail records err for the access log and writes the public part of it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)

	payload := gin.H{"error": apperr.PublicMessage(err)}
	if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
		payload["fields"] = ae.Fields
	}
	if rid := c.GetString(KeyRequestID); rid != "" {
		payload["request_id"] = rid
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), payload)
}

// BindJSON binds the body and fails the request with field detail when it
// does not validate.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, apperr.FromBindError(err))
		return false
	}
	return true
}

func UserID(c *gin.Context) (uint, bool) {
	id := c.GetUint(KeyUserID)
	return id, id != 0
}

// Page reads limit/offset query parameters.
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
