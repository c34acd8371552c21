package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

func TestWriteServiceErrorStatus(t *testing.T) {
	user := &types.Principal{UserID: 1, Role: types.RoleBuyer}

	cases := []struct {
		name      string
		err       error
		principal *types.Principal
		want      int
	}{
		{"validation", &services.ValidationError{Field: "title", Message: "is required"}, nil, http.StatusBadRequest},
		{"unauthorized anonymous", services.ErrUnauthorized, nil, http.StatusUnauthorized},
		{"unauthorized signed in", services.ErrUnauthorized, user, http.StatusForbidden},
		{"invalid credentials", services.ErrInvalidCredentials, nil, http.StatusUnauthorized},
		{"invalid token", services.ErrInvalidToken, nil, http.StatusBadRequest},
		{"not found", fmt.Errorf("load listing: %w", store.ErrNotFound), nil, http.StatusNotFound},
		{"duplicate email", store.ErrDuplicateEmail, nil, http.StatusConflict},
		{"storage failure", errors.New("connection refused"), nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.principal != nil {
				req = req.WithContext(withPrincipal(req.Context(), tc.principal))
			}
			rec := httptest.NewRecorder()

			writeServiceError(rec, req, zap.NewNop(), tc.err, "failed")

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
				t.Fatalf("expected error payload, got %q (%v)", rec.Body.String(), err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	user := types.User{ID: 42, Role: types.RoleAgent}

	token, err := issueToken(user, secret, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	principal, err := parseToken(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if principal.UserID != 42 || principal.Role != types.RoleAgent {
		t.Fatalf("principal = %+v", principal)
	}

	if _, err := parseToken(token, []byte("other")); err == nil {
		t.Fatalf("token accepted with the wrong secret")
	}
	expired, _ := issueToken(user, secret, -time.Minute)
	if _, err := parseToken(expired, secret); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestOptionalAuth(t *testing.T) {
	var seen *types.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = principalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := OptionalAuth("secret")(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent || seen != nil {
		t.Fatalf("anonymous request: status %d principal %+v", rec.Code, seen)
	}

	token, _ := issueToken(types.User{ID: 7, Role: types.RoleBuyer}, []byte("secret"), time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen == nil || seen.UserID != 7 {
		t.Fatalf("signed-in request: status %d principal %+v", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed header: status %d", rec.Code)
	}
}
