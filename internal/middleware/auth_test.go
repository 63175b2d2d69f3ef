package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/services/identity"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/logging"
)

func newIdentity(t *testing.T) *identity.Service {
	t.Helper()
	log := logging.NewDefault("middleware-test")
	log.SetOutput(io.Discard)
	return identity.NewService(memory.NewUserStore(), identity.AllowAll{}, identity.Config{
		JWTSecret: "secret",
		TokenTTL:  time.Hour,
	}, log)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(newIdentity(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	handler := Auth(newIdentity(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthPutsIdentityInContext(t *testing.T) {
	svc := newIdentity(t)
	token, err := svc.IssueToken("u1", "0xabc")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var gotUser, gotWallet string
	handler := Auth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = logging.GetUserID(r.Context())
		gotWallet = logging.GetWallet(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "u1" || gotWallet != "0xabc" {
		t.Fatalf("context identity = %q/%q, want u1/0xabc", gotUser, gotWallet)
	}
}

func TestAuthSkipsListedPrefixes(t *testing.T) {
	called := false
	handler := Auth(newIdentity(t), "/v1/auth/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/nonce", nil))

	if !called {
		t.Fatal("skip prefix did not bypass auth")
	}
}
