package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
	secret      []byte
	tokenTTL    time.Duration
	log         *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		authService: authService,
		secret:      []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/password/forgot", handler.ForgotPassword)
	r.Post("/password/reset", handler.ResetPassword)
	r.With(RequireAuth(string(handler.secret))).Get("/me", handler.Me)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// principal into the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate([]byte(jwtSecret), true)
}

// OptionalAuth injects the principal when a bearer token is present. Requests
// without a token continue anonymously; an invalid token is rejected.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate([]byte(jwtSecret), false)
}

func authenticate(secret []byte, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				if errors.Is(err, errMissingAuthorization) && !required {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			principal, err := parseToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// Register creates a new user account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.authService.Signup(r.Context(), services.SignupInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create user")
		return
	}

	token, err := issueToken(user, h.secret, h.tokenTTL)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to authenticate")
		return
	}

	token, err := issueToken(user, h.secret, h.tokenTTL)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.GetByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeServiceError(w, r, h.log, err, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ForgotPassword starts a password reset. The response is the same whether
// or not the email belongs to an account; the token is delivered out of band.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, h.log, err, "failed to request password reset")
		return
	}

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "if the account exists, a reset link has been sent"})
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, h.log, err, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "password updated"})
}

type RegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	ContactNumber string `json:"contact_number"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// sessionClaims carries the principal in the token.
type sessionClaims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

var errMissingAuthorization = errors.New("missing authorization")

func issueToken(user types.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (*types.Principal, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return nil, errors.New("invalid subject")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("invalid role")
	}
	return &types.Principal{UserID: userID, Role: claims.Role}, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errMissingAuthorization
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
