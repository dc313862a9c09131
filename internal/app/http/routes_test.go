package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Deps{Log: zap.NewNop()})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/tiers", http.StatusOK},
		{http.MethodGet, "/api/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/admin/users", http.StatusUnauthorized},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	want := map[string]bool{
		"POST /api/create-payment-intent":                  false,
		"GET /payment-return":                              false,
		"POST /payment-return":                             false,
		"POST /api/payment-webhook":                        false,
		"POST /api/subscription-webhook":                   false,
		"POST /api/adumo/tokenize-card":                    false,
		"POST /api/adumo/create-subscription-from-payment": false,
		"POST /api/auth/request-otp":                       false,
		"POST /api/auth/verify-otp":                        false,
		"GET /api/auth/me":                                 false,
		"POST /api/verify-payment":                         false,
		"GET /api/payments/:ref":                           false,
		"PUT /api/user/progress":                           false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
