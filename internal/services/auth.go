package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/metrics"
	"github.com/aryanprajapat98/REMS/internal/notify"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenBytes = 32

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
}

// PasswordResetRepository defines persistence operations for reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, email, token string) error
	Consume(ctx context.Context, token, passwordHash string) error
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Name          string
	Email         string
	Password      string
	Role          string
	ContactNumber string
}

// AuthService encapsulates identity use-cases: signup, login and password reset.
type AuthService struct {
	users    UserRepository
	resets   PasswordResetRepository
	notifier notify.Notifier
	log      *zap.Logger
	hashCost int

	// dummyHash is compared against when an email is unknown so that
	// failed logins take the same time either way.
	dummyHash []byte
}

func NewAuthService(users UserRepository, resets PasswordResetRepository, notifier notify.Notifier, log *zap.Logger) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("rems-dummy-password"), bcrypt.DefaultCost)
	return &AuthService{
		users:     users,
		resets:    resets,
		notifier:  notifier,
		log:       log,
		hashCost:  bcrypt.DefaultCost,
		dummyHash: dummy,
	}
}

// Signup registers a buyer or agent account. Admin accounts cannot be
// self-registered; see CreateAdmin.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (types.User, error) {
	role, err := types.ParseRole(in.Role)
	if err != nil {
		return types.User{}, invalid("role", "must be buyer or agent")
	}
	if role == types.RoleAdmin {
		return types.User{}, invalid("role", "admin accounts cannot be self-registered")
	}
	return s.createUser(ctx, in, role)
}

// CreateAdmin registers an administrator. It is reachable from the CLI only.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignupInput) (types.User, error) {
	return s.createUser(ctx, in, types.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, in SignupInput, role types.Role) (types.User, error) {
	name := strings.TrimSpace(in.Name)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}
	if name == "" {
		return types.User{}, invalid("name", "is required")
	}
	if in.Password == "" {
		return types.User{}, invalid("password", "is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := types.User{
		Name:          name,
		Email:         email,
		Role:          role,
		ContactNumber: optionalString(in.ContactNumber),
		PasswordHash:  string(hashed),
	}
	return s.users.Create(ctx, user)
}

// Authenticate verifies credentials. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.users.GetByID(ctx, id)
}

// RequestPasswordReset issues a reset token for email and hands it to the
// notifier. It reports success whether or not the email belongs to a user.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.resets.Create(ctx, email, token); err != nil {
		return err
	}
	metrics.PasswordReset("requested")

	if err := s.notifier.PasswordResetRequested(ctx, email, token); err != nil {
		s.log.Error("password reset notification failed", zap.Error(err))
	}
	return nil
}

// ResetPassword redeems token and sets newPassword. A token can be redeemed once.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if newPassword == "" {
		return invalid("password", "is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.resets.Consume(ctx, token, string(hashed)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.PasswordReset("invalid_token")
			return ErrInvalidToken
		}
		return err
	}
	metrics.PasswordReset("completed")
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
