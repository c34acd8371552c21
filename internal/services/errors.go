package services

import (
	"errors"
	"fmt"

	"github.com/aryanprajapat98/REMS/internal/policy"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized is returned when the principal may not perform an action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for unknown or already redeemed reset tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func authorize(log *zap.Logger, principal *types.Principal, action policy.Action, resource policy.Resource) error {
	if policy.CanPerform(principal, action, resource) {
		return nil
	}
	fields := []zap.Field{zap.String("action", string(action))}
	if principal != nil {
		fields = append(fields, zap.Int("user_id", principal.UserID), zap.String("role", string(principal.Role)))
	}
	if resource.OwnerID != 0 {
		fields = append(fields, zap.Int("owner_id", resource.OwnerID))
	}
	log.Warn("permission denied", fields...)
	return ErrUnauthorized
}
