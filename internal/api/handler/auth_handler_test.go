package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/atenas/admin-console/internal/core/domain"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, email, password string, remember bool) (domain.AuthResult, error)
	registerFn func(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error)
	current    *domain.User
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, remember bool) (domain.AuthResult, error) {
	return s.loginFn(ctx, email, password, remember)
}

func (s *stubAuthService) Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Logout(context.Context) error {
	s.current = nil
	return nil
}

func (s *stubAuthService) CurrentUser() (domain.User, bool) {
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string, remember bool) (domain.AuthResult, error) {
			if email != "admin@atenas.com" || password != "admin123" || !remember {
				t.Fatalf("unexpected args: %s %s %v", email, password, remember)
			}
			return domain.AuthResult{Token: "tkn", User: domain.User{ID: 1, Email: email, Role: domain.RoleAdmin}}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/auth/login", `{"email":"admin@atenas.com","password":"admin123","remember":true}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tkn" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "ADMIN" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, bool) (domain.AuthResult, error) {
			return domain.AuthResult{}, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)

	if err := NewAuthHandler(stub).Login(c); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_ValidationFailure(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, bool) (domain.AuthResult, error) {
			t.Fatalf("should not be called")
			return domain.AuthResult{}, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"not-an-email"}`)

	err := NewAuthHandler(stub).Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if msg, _ := he.Message.(string); !strings.Contains(msg, "email must be a valid email") || !strings.Contains(msg, "password is required") {
		t.Fatalf("unexpected message: %v", he.Message)
	}
}

func TestAuthHandler_Register_ForwardsTerms(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in domain.RegisterInput) (domain.AuthResult, error) {
			if in.AgreeTerms {
				t.Fatalf("terms flag must be forwarded as sent")
			}
			return domain.AuthResult{}, domain.ErrTermsNotAccepted
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"ana@x.com","password":"secret1"}`)

	if err := NewAuthHandler(stub).Register(c); err != domain.ErrTermsNotAccepted {
		t.Fatalf("expected ErrTermsNotAccepted, got %v", err)
	}
}

func TestAuthHandler_Register_NameTooShort(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, domain.RegisterInput) (domain.AuthResult, error) {
			t.Fatalf("should not be called")
			return domain.AuthResult{}, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/register", `{"name":"A","email":"ana@x.com","password":"secret1","agreeTerms":true}`)

	err := NewAuthHandler(stub).Register(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	stub := &stubAuthService{current: &domain.User{ID: 2, Email: "user@atenas.com", Role: domain.RoleUser}}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodGet, "/api/auth/me", "")
	if err := h.Me(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", rec.Code, err)
	}

	c, rec = newContext(http.MethodPost, "/api/auth/logout", "")
	if err := h.Logout(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d %v", rec.Code, err)
	}

	c, _ = newContext(http.MethodGet, "/api/auth/me", "")
	if he, ok := h.Me(c).(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout")
	}
}
