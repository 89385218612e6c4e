package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{fmt.Errorf("create user: %w", domain.ErrEmailExists), http.StatusConflict, "email exists"},
		{domain.ErrTermsNotAccepted, http.StatusUnprocessableEntity, "terms not accepted"},
		{domain.ErrSelfDelete, http.StatusForbidden, "cannot delete the current user"},
		{fmt.Errorf("create user: role %q: %w", "ROOT", domain.ErrInvalidRole), http.StatusUnprocessableEntity, "invalid role"},
		{fmt.Errorf("get user 9: %w", domain.ErrUserNotFound), http.StatusNotFound, "user not found"},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{errors.New("mongo exploded"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body.Error)
		}
	}
}
