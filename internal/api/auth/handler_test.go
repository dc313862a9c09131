package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/infra/mailer"
	"ascendancy-backend/internal/infra/ratelimit"
	authsvc "ascendancy-backend/internal/service/auth"
	"ascendancy-backend/internal/store"
	"ascendancy-backend/internal/store/storetest"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type testEnv struct {
	router *gin.Engine
	store  *store.Gorm
	mail   *mailer.Mock
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(storetest.Open(t))
	mail := &mailer.Mock{}
	svc := authsvc.NewOTPService(st, ratelimit.NewMemory(), mail, authsvc.NewSessions("session-secret"), zap.NewNop(),
		authsvc.WithBcryptCost(bcrypt.MinCost))

	h := NewHandler(svc)
	r := gin.New()
	r.POST("/api/auth/request-otp", h.RequestOTP)
	r.POST("/api/auth/verify-otp", h.VerifyOTP)
	return &testEnv{router: r, store: st, mail: mail}
}

func (e *testEnv) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRequestOTPResponseIsIdentical(t *testing.T) {
	e := newEnv(t)
	if err := e.store.CreateUser(context.Background(), &users.User{
		Email: "known@example.com", Name: "Lerato Mokoena", Role: users.RoleInvestor,
	}); err != nil {
		t.Fatal(err)
	}

	known := e.post("/api/auth/request-otp", `{"email":"known@example.com"}`)
	unknown := e.post("/api/auth/request-otp", `{"email":"nobody@example.com"}`)
	invalid := e.post("/api/auth/request-otp", `{"email":"not-an-email"}`)
	malformed := e.post("/api/auth/request-otp", `{"email":`)

	for name, w := range map[string]*httptest.ResponseRecorder{"unknown": unknown, "invalid": invalid, "malformed": malformed} {
		if w.Code != known.Code || w.Body.String() != known.Body.String() {
			t.Errorf("%s: got %d %q, want %d %q", name, w.Code, w.Body.String(), known.Code, known.Body.String())
		}
	}
	if known.Code != http.StatusOK {
		t.Fatalf("status = %d", known.Code)
	}
	if e.mail.Count() != 1 {
		t.Fatalf("mails sent = %d, want 1", e.mail.Count())
	}
}

func TestVerifyOTPIssuesSession(t *testing.T) {
	e := newEnv(t)
	if err := e.store.CreateUser(context.Background(), &users.User{
		Email: "sipho@example.com", Name: "Sipho Ndlovu", Role: users.RoleInvestor, Tier: "builder",
	}); err != nil {
		t.Fatal(err)
	}

	e.post("/api/auth/request-otp", `{"email":"sipho@example.com"}`)
	m := codePattern.FindStringSubmatch(e.mail.Sent[0].TextBody)
	if m == nil {
		t.Fatal("no code in mail")
	}

	w := e.post("/api/auth/verify-otp", `{"email":"sipho@example.com","code":"`+m[1]+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("no token in %s", w.Body.String())
	}

	again := e.post("/api/auth/verify-otp", `{"email":"sipho@example.com","code":"`+m[1]+`"}`)
	if again.Code != http.StatusUnauthorized {
		t.Fatalf("reused code: status = %d", again.Code)
	}
}

func TestVerifyOTPValidatesBody(t *testing.T) {
	e := newEnv(t)

	w := e.post("/api/auth/verify-otp", `{"email":"sipho@example.com","code":"12ab"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"fields"`) {
		t.Fatalf("no field detail: %s", w.Body.String())
	}
}
