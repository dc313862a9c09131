package users

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/access"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/shared/apperr"
)

// Store is the slice of the record store the investor views read.
type Store interface {
	UserByID(ctx context.Context, id uint) (*users.User, error)
	UpdateUser(ctx context.Context, id uint, updates map[string]any) error
	PaymentsForUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	SubscriptionsForUser(ctx context.Context, userID uint) ([]billing.Subscription, error)
	PaymentMethodsForUser(ctx context.Context, userID uint) ([]billing.PaymentMethod, error)
}

type Handler struct {
	store Store
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

func (h *Handler) currentUser(c *gin.Context) (*users.User, bool) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
		return nil, false
	}
	u, err := h.store.UserByID(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, apperr.AuthErr("User not found", err))
		return nil, false
	}
	return u, true
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	payments, err := h.store.PaymentsForUser(ctx, user.ID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	subs, err := h.store.SubscriptionsForUser(ctx, user.ID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	methods, err := h.store.PaymentMethodsForUser(ctx, user.ID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	if methods == nil {
		methods = []billing.PaymentMethod{}
	}

	policy := access.ComputePolicy(*user, subs)

	c.JSON(http.StatusOK, MeResponse{
		User:           BuildUserDTO(*user),
		Tier:           BuildTierDTO(user.Tier),
		Payments:       payments,
		Subscription:   BuildSubscriptionDTO(subs),
		PaymentMethods: methods,
		Progress:       BuildProgress(*user),
		Access: AccessDTO{
			State:        string(policy.State),
			Capabilities: policy.Capabilities,
		},
	})
}

func (h *Handler) GetProgress(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": BuildProgress(*user)})
}

// PutProgress replaces the whole progress blob.
func (h *Handler) PutProgress(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthErr("Unauthorized", nil))
		return
	}

	var p users.Progress
	if !httpx.BindJSON(c, &p) {
		return
	}
	if p.Level < 1 || p.XP < 0 {
		httpx.Fail(c, apperr.ValidationErr("Invalid progress", map[string]string{
			"level": "must be at least 1",
			"xp":    "must not be negative",
		}))
		return
	}
	if p.QuestsCompleted == nil {
		p.QuestsCompleted = []string{}
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}

	if err := h.store.UpdateUser(c.Request.Context(), userID, map[string]any{"progress": p.JSON()}); err != nil {
		httpx.Fail(c, err)
		return
	}

	raw, _ := json.Marshal(p)
	c.JSON(http.StatusOK, gin.H{"progress": json.RawMessage(raw)})
}

// Dashboard summarises the investment and projects it five years out.
func (h *Handler) Dashboard(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	payments, err := h.store.PaymentsForUser(ctx, user.ID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	subs, err := h.store.SubscriptionsForUser(ctx, user.ID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	tier := BuildTierDTO(user.Tier)
	invested := Invested(payments, subs)

	resp := DashboardResponse{
		Tier:         tier,
		Invested:     invested,
		Committed:    Committed(*user, tier),
		Subscription: BuildSubscriptionDTO(subs),
		Projection:   []ProjectionYear{},
	}
	if tier != nil {
		resp.Projection = Project(invested, tier.AnnualReturnBps, projectionYears)
	}

	c.JSON(http.StatusOK, resp)
}
