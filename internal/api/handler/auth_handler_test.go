package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/isaacpassnav/okea-backend/internal/api/middleware"
	"github.com/isaacpassnav/okea-backend/internal/core/domain"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, token string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (string, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context) string {
	return "bye"
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			if in.Name != "Ana" || in.Email != "ana@test.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.RegisterResult{
				ID:    "u-1",
				Token: "tok",
				User:  domain.UserSummary{ID: "u-1", Name: "Ana", Email: "ana@test.com", Roles: []string{"cliente"}},
			}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/auth/register", `{"nombre":"Ana","email":"ana@test.com","password":"secret1"}`)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["message"] != "Usuario creado" || resp["id"] != "u-1" || resp["token"] != "tok" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	user, ok := resp["usuario"].(map[string]any)
	if !ok || user["nombre"] != "Ana" || user["email"] != "ana@test.com" {
		t.Fatalf("unexpected usuario payload: %+v", resp["usuario"])
	}
	roles, _ := user["roles"].([]any)
	if len(roles) != 1 || roles[0] != "cliente" {
		t.Fatalf("unexpected roles: %v", user["roles"])
	}
}

func TestAuthHandler_Register_PropagatesServiceError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/auth/register", `{"nombre":"Bob","email":"b@test.com","password":"secret1"}`)

	err := NewAuthHandler(stub).Register(c)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("handler must leave rendering to the error handler")
	}
}

func TestAuthHandler_Register_EmptyBodyReachesService(t *testing.T) {
	called := false
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			called = true
			if in != (ports.RegisterInput{}) {
				t.Fatalf("expected zero input, got %+v", in)
			}
			return nil, domain.NewValidationError("nombre, email y password son requeridos")
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/register", "")

	err := NewAuthHandler(stub).Register(c)
	if !called || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected service validation error, got called=%v err=%v", called, err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	cases := map[string]string{
		"not json":       "not-json",
		"unknown field":  `{"nombre":"Ana","email":"a@test.com","password":"secret1","rol":"admin"}`,
		"wrong type":     `{"nombre":42,"email":"a@test.com","password":"secret1"}`,
		"trailing data":  `{"nombre":"Ana","email":"a@test.com","password":"secret1"} {}`,
		"truncated json": `{"nombre":`,
		"case-folded key": `{"Nombre":"Ana","EMAIL":"a@test.com","password":"secret1"}`,
		"not an object":  `["Ana"]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			c, _ := newJSONContext(http.MethodPost, "/auth/register", body)

			err := NewAuthHandler(stub).Register(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest || he.Message != msgBadBody {
				t.Fatalf("expected 400 bad body, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			if in.Email != "ana@test.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token: "token123",
				User:  domain.UserSummary{ID: "u-1", Name: "Ana", Email: "ana@test.com", Roles: []string{"cliente"}},
			}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"ana@test.com","password":"secret1"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["message"] != "Login exitoso" || resp["token"] != "token123" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if user, ok := resp["usuario"].(map[string]any); !ok || user["id"] != "u-1" {
		t.Fatalf("unexpected usuario payload: %+v", resp["usuario"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"ana@test.com","password":"bad"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_RejectsCaseFoldedKeys(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"EMAIL":"ana@test.com","PassWord":"secret1"}`)

	if err := NewAuthHandler(stub).Login(c); err != errBadBody {
		t.Fatalf("expected bad body error, got %v", err)
	}
}

func TestAuthHandler_Login_WhitespaceBodyReachesService(t *testing.T) {
	called := false
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			called = true
			return nil, domain.NewValidationError("email y password son requeridos")
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/login", " \n ")

	if err := NewAuthHandler(stub).Login(c); !called || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected service validation error, got called=%v err=%v", called, err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/login", "{")

	if err := NewAuthHandler(stub).Login(c); err != errBadBody {
		t.Fatalf("expected bad body error, got %v", err)
	}
}

func TestAuthHandler_Refresh_UsesBearerToken(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (string, error) {
			if token != "old-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return "new-token", nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/auth/refresh", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer old-token")

	h := middleware.BearerToken()(NewAuthHandler(stub).Refresh)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if resp := decodeBody(t, rec); resp["token"] != "new-token" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (string, error) {
			return "", domain.ErrInvalidToken
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/refresh", "")

	if err := NewAuthHandler(stub).Refresh(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	c, rec := newJSONContext(http.MethodPost, "/auth/logout", "")

	if err := NewAuthHandler(&stubAuthService{}).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["message"] != "bye" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
