package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

func runBearer(t *testing.T, header string) (string, bool, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		got    string
		called bool
	)
	h := BearerToken()(func(c echo.Context) error {
		called = true
		got = Token(c)
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return got, called, err
}

func TestBearerToken_ValidHeader(t *testing.T) {
	token, called, err := runBearer(t, "Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if token != "abc.def.ghi" {
		t.Fatalf("expected token in context, got %q", token)
	}
}

func TestBearerToken_SchemeIsCaseInsensitive(t *testing.T) {
	token, called, err := runBearer(t, "bearer abc")
	if err != nil || !called || token != "abc" {
		t.Fatalf("expected lowercase scheme to pass, got token=%q called=%v err=%v", token, called, err)
	}
}

func TestBearerToken_Rejected(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"basic scheme":   "Basic dXNlcjpwYXNz",
		"no token":       "Bearer",
		"blank token":    "Bearer    ",
		"token only":     "abc.def.ghi",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, called, err := runBearer(t, header)
			if !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if called {
				t.Fatalf("next must not run")
			}
		})
	}
}

func TestToken_AbsentReturnsEmpty(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := Token(c); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
