package adumo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ascendancy-backend/config"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

// fakeGateway serves the Adumo endpoints the client calls. Handlers left
// nil answer with an empty 200.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	OAuthFunc      func(w http.ResponseWriter, r *http.Request)
	TokenizeFunc   func(w http.ResponseWriter, r *http.Request)
	SubscriberFunc func(w http.ResponseWriter, r *http.Request)
	ScheduleFunc   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeGateway) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	var h func(http.ResponseWriter, *http.Request)
	switch r.URL.Path {
	case oauthPath:
		h = f.OAuthFunc
		if h == nil {
			h = func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"access_token": "access-1",
					"token_type":   "Bearer",
					"expires_in":   3600,
				})
			}
		}
	case tokenizePath:
		h = f.TokenizeFunc
	case subscribersPath:
		h = f.SubscriberFunc
	case schedulesPath:
		h = f.ScheduleFunc
	default:
		http.NotFound(w, r)
		return
	}
	if h == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(base string) config.AdumoConfig {
	return config.AdumoConfig{
		Env:           "staging",
		BaseURL:       base,
		FormURL:       base + "/product/payment/v1/initialisevirtual",
		MerchantID:    "merchant-uid",
		ApplicationID: "application-uid",
		Secret:        "form-secret",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		WebhookSecret: "hook-secret",
		Currency:      "ZAR",
	}
}

func newTestClient(t *testing.T, gw *fakeGateway) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	c := New(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithClock(func() time.Time { return testNow }))
	return c, srv
}
