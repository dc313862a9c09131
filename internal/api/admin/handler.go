package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

type Store interface {
	UserByID(ctx context.Context, id uint) (*users.User, error)
	ListUsers(ctx context.Context, p store.Page) ([]users.User, int64, error)
	ListPayments(ctx context.Context, p store.Page) ([]billing.Payment, int64, error)
	ListSubscriptions(ctx context.Context, p store.Page) ([]billing.Subscription, int64, error)
	PaymentsForUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	SubscriptionsForUser(ctx context.Context, userID uint) ([]billing.Subscription, error)
}

type AdminUser struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Tier          string    `json:"tier"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

type AdminPayment struct {
	ID                uint   `json:"id"`
	Email             string `json:"email"`
	MerchantReference string `json:"merchant_reference"`
	Method            string `json:"method"`
	Amount            int64  `json:"amount"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
}

type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type Handler struct {
	store Store
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

func page(c *gin.Context) store.Page {
	limit, offset := httpx.Page(c)
	return store.Page{Limit: limit, Offset: offset}
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	p := page(c)
	list, total, err := h.store.ListUsers(c.Request.Context(), p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	adminUsers := make([]AdminUser, 0, len(list))
	for _, u := range list {
		adminUsers = append(adminUsers, AdminUser{
			ID:            u.ID,
			Name:          u.Name,
			Phone:         u.Phone,
			Email:         u.Email,
			Role:          u.Role,
			Tier:          u.Tier,
			PaymentMethod: u.PaymentMethod,
			PaymentStatus: u.PaymentStatus,
			Amount:        u.Amount,
			CreatedAt:     u.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, listResponse[AdminUser]{Items: adminUsers, Total: total, Limit: p.Limit, Offset: p.Offset})
}

func (h *Handler) ListAllPayments(c *gin.Context) {
	p := page(c)
	list, total, err := h.store.ListPayments(c.Request.Context(), p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	result := make([]AdminPayment, 0, len(list))
	for _, pay := range list {
		result = append(result, AdminPayment{
			ID:                pay.ID,
			Email:             pay.User.Email,
			MerchantReference: pay.MerchantReference,
			Method:            string(pay.Method),
			Amount:            pay.Amount,
			Status:            string(pay.Status),
			CreatedAt:         pay.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, listResponse[AdminPayment]{Items: result, Total: total, Limit: p.Limit, Offset: p.Offset})
}

func (h *Handler) ListAllSubscriptions(c *gin.Context) {
	p := page(c)
	list, total, err := h.store.ListSubscriptions(c.Request.Context(), p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if list == nil {
		list = []billing.Subscription{}
	}

	c.JSON(http.StatusOK, listResponse[billing.Subscription]{Items: list, Total: total, Limit: p.Limit, Offset: p.Offset})
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httpx.Fail(c, apperr.ValidationErr("Invalid user id", nil))
		return
	}
	ctx := c.Request.Context()

	user, err := h.store.UserByID(ctx, uint(id))
	if err != nil {
		httpx.Fail(c, apperr.NotFoundErr("User not found"))
		return
	}

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

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"payments":      payments,
		"subscriptions": subs,
	})
}
