package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

const maxJSONBodyBytes = 1 << 20

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse acknowledges an action without returning a resource.
type StatusResponse struct {
	Status string `json:"status"`
}

func withPrincipal(ctx context.Context, principal *types.Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, principal)
}

// principalFromContext returns the request principal, or nil for anonymous requests.
func principalFromContext(ctx context.Context) *types.Principal {
	principal, _ := ctx.Value(contextPrincipalKey).(*types.Principal)
	return principal
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and store errors onto HTTP responses.
// Anything unrecognised is a storage or infrastructure failure: it is logged
// and reported as failMessage with a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, failMessage string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, services.ErrUnauthorized):
		if principalFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "invalid token")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already exists")
	default:
		log.Error(failMessage,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, failMessage)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func parseListingID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "listingID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid listing id")
	}
	return id, nil
}

func parseOptionalInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
