package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	issuer := newTestIssuer()
	uid := uuid.New()

	token, err := issuer.Issue(uid, "Dr. Silva", "professional")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != uid.String() {
		t.Errorf("expected subject %s, got %s", uid, claims.Subject)
	}
	if claims.Role != "professional" {
		t.Errorf("expected role professional, got %s", claims.Role)
	}
	if claims.Name != "Dr. Silva" {
		t.Errorf("expected name Dr. Silva, got %s", claims.Name)
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer()
	other := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour)

	token, err := issuer.Issue(uuid.New(), "X", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", -time.Minute)
	token, err := issuer.Issue(uuid.New(), "X", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	mw := Middleware(newTestIssuer())
	err := mw(func(c echo.Context) error { return nil })(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	issuer := newTestIssuer()
	uid := uuid.New()
	token, _ := issuer.Issue(uid, "Sec", "secretary")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	var gotID, gotRole string
	mw := Middleware(issuer)
	err := mw(func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRole = RoleFromContext(c.Request().Context())
		return nil
	})(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != uid.String() {
		t.Errorf("expected user id %s, got %s", uid, gotID)
	}
	if gotRole != "secretary" {
		t.Errorf("expected role secretary, got %s", gotRole)
	}
}

func TestRequireRole_AllowsMatching(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRoleKey, "professional")
	req = req.WithContext(ctx)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := RequireRole("professional")(func(c echo.Context) error {
		called = true
		return nil
	})(c)

	if err != nil || !called {
		t.Errorf("expected handler to run, err=%v called=%v", err, called)
	}
}

func TestRequireRole_AdminOverride(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRoleKey, "admin")
	req = req.WithContext(ctx)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := RequireRole("professional")(func(c echo.Context) error {
		called = true
		return nil
	})(c)

	if err != nil || !called {
		t.Errorf("expected admin to pass, err=%v called=%v", err, called)
	}
}

func TestRequireRole_RejectsOther(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRoleKey, "secretary")
	req = req.WithContext(ctx)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequireRole("professional")(func(c echo.Context) error { return nil })(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
