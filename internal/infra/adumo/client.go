package adumo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"ascendancy-backend/config"
	"ascendancy-backend/internal/infra/metrics"
	"ascendancy-backend/internal/shared/apperr"
)

const (
	oauthPath       = "/oauth/token"
	tokenizePath    = "/products/payments/v1/card/tokenize"
	subscribersPath = "/products/subscriptions/v1/subscribers"
	schedulesPath   = "/products/subscriptions/v1/schedules"

	requestTimeout = 20 * time.Second
	maxErrorBody   = 2048
)

// Client talks to the Adumo Online REST API and signs hosted-form
// assertions. It never persists anything; callers store the identifiers it
// returns.
type Client struct {
	cfg  config.AdumoConfig
	http *http.Client
	log  *zap.Logger
	now  func() time.Time

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(cfg config.AdumoConfig, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	return c
}

func (c *Client) MerchantID() string    { return c.cfg.MerchantID }
func (c *Client) ApplicationID() string { return c.cfg.ApplicationID }

// OAuthToken returns a client-credentials access token. Tokens are cached
// until shortly before they expire.
func (c *Client) OAuthToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.tokens == nil {
		cc := &clientcredentials.Config{
			ClientID:     c.cfg.ClientID,
			ClientSecret: c.cfg.ClientSecret,
			TokenURL:     c.cfg.BaseURL + oauthPath,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		// The source outlives this request, so it gets its own context.
		base := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.tokens = cc.TokenSource(base)
	}
	ts := c.tokens
	c.mu.Unlock()

	// A slow fetch keeps running for later callers; this caller stops
	// waiting when its context ends.
	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := ts.Token()
		done <- result{tok, err}
	}()
	var res result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-done:
	}

	tok, err := res.tok, res.err
	metrics.GatewayRequests.WithLabelValues("oauth", metrics.GatewayResult(err)).Inc()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			status := re.Response.StatusCode
			if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
				c.log.Error("adumo oauth rejected credentials", zap.Int("status", status))
				return "", apperr.GatewayErr(http.StatusBadGateway, fmt.Errorf("%w: %v", ErrAuth, err))
			}
			return "", apperr.GatewayErr(status, fmt.Errorf("adumo oauth: %w", err))
		}
		return "", apperr.GatewayErr(0, fmt.Errorf("adumo oauth: %w", err))
	}
	return tok.AccessToken, nil
}

// doJSON posts in as JSON with a bearer token and decodes a 2xx response
// into out. Non-2xx answers become gateway errors carrying the status.
func (c *Client) doJSON(ctx context.Context, op, path string, in, out any) (err error) {
	defer func() {
		metrics.GatewayRequests.WithLabelValues(op, metrics.GatewayResult(err)).Inc()
	}()

	token, err := c.OAuthToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.GatewayErr(0, fmt.Errorf("adumo %s: %w", op, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.GatewayErr(resp.StatusCode, fmt.Errorf("adumo %s: read body: %w", op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.log.Warn("adumo request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet),
		)
		return apperr.GatewayErr(resp.StatusCode, &APIError{Op: op, Status: resp.StatusCode, Body: snippet})
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.GatewayErr(resp.StatusCode, fmt.Errorf("adumo %s: decode: %w", op, err))
	}
	return nil
}
