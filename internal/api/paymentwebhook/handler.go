// Package paymentwebhook receives gateway callbacks: the browser return,
// the server to server payment notification and recurring collection
// notices.
package paymentwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/shared/apperr"
)

const maxBodyBytes = 65536

type Reconciler interface {
	Reconcile(ctx context.Context, cb payments.Callback) (payments.Outcome, error)
}

type CollectionHandler interface {
	HandleCollection(ctx context.Context, n payments.CollectionNotice, raw []byte) (payments.CollectionOutcome, error)
}

type Handler struct {
	reconciler    Reconciler
	collections   CollectionHandler
	webhookSecret string
	frontendURL   string
	log           *zap.Logger
}

func NewHandler(r Reconciler, ch CollectionHandler, webhookSecret, frontendURL string, log *zap.Logger) *Handler {
	return &Handler{
		reconciler:    r,
		collections:   ch,
		webhookSecret: webhookSecret,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		log:           log,
	}
}

// PaymentWebhook handles the gateway's server notification. The signature
// header is optional; when present it must match.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		httpx.Fail(c, apperr.ValidationErr("Error reading request body", nil))
		return
	}

	if sig := c.GetHeader(adumo.SignatureHeader); sig != "" && h.webhookSecret != "" {
		if !adumo.VerifyWebhookSignature(h.webhookSecret, raw, sig) {
			httpx.Fail(c, apperr.AuthErr("Signature verification failed", nil))
			return
		}
	}

	body, err := parseBody(c.ContentType(), raw)
	if err != nil {
		httpx.Fail(c, apperr.ValidationErr("Malformed body", nil))
		return
	}

	out, err := h.reconciler.Reconcile(c.Request.Context(), payments.Callback{
		Channel:    payments.ChannelWebhook,
		AuthHeader: c.GetHeader("Authorization"),
		Body:       body,
		Query:      c.Request.URL.Query(),
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            webhookStatus(out),
		"merchantReference": out.MerchantReference,
	})
}

func webhookStatus(out payments.Outcome) string {
	if out.AlreadyProcessed {
		return "already_processed"
	}
	switch out.Status {
	case billing.StatusCompleted:
		return "processed"
	case billing.StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return io.ReadAll(c.Request.Body)
}

// parseBody flattens a JSON object or a form body into url.Values so the
// assertion can be found under any of its usual keys.
func parseBody(contentType string, raw []byte) (url.Values, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return url.Values{}, nil
	}

	if strings.Contains(contentType, "json") || raw[0] == '{' {
		var m map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
		out := url.Values{}
		for k, v := range m {
			switch t := v.(type) {
			case string:
				out.Set(k, t)
			case json.Number:
				out.Set(k, t.String())
			case bool:
				out.Set(k, fmt.Sprint(t))
			}
		}
		return out, nil
	}

	return url.ParseQuery(string(raw))
}
