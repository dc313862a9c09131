package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/access"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/shared/apperr"
)

type AccessLookup interface {
	UserByID(ctx context.Context, id uint) (*users.User, error)
	SubscriptionsForUser(ctx context.Context, userID uint) ([]billing.Subscription, error)
}

// RequireCapability admits investors whose access policy grants capability.
func RequireCapability(lookup AccessLookup, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.UserID(c)
		if !ok {
			httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
			return
		}

		ctx := c.Request.Context()
		user, err := lookup.UserByID(ctx, userID)
		if err != nil {
			httpx.Fail(c, apperr.AuthErr("User not found", err))
			return
		}
		subs, err := lookup.SubscriptionsForUser(ctx, userID)
		if err != nil {
			httpx.Fail(c, apperr.Wrap(err))
			return
		}

		if !access.ComputePolicy(*user, subs).Can(capability) {
			httpx.Fail(c, apperr.ForbiddenErr("Complete your investment to access the dashboard"))
			return
		}

		c.Next()
	}
}
