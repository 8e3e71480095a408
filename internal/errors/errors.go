package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error types for the credential broker
var (
	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionPending    = errors.New("session pending authentication")
	ErrSessionRevoked    = errors.New("session has been revoked")
	ErrInvalidTransition = errors.New("invalid session state transition")

	// Refresh errors
	ErrRefreshTimeout          = errors.New("token refresh timed out")
	ErrReauthRequired          = errors.New("re-authentication required")
	ErrUpstreamRefreshRejected = errors.New("refresh token rejected by upstream")
	ErrTooManyAttempts         = errors.New("too many re-authentication attempts")

	// OAuth flow errors
	ErrInvalidState = errors.New("invalid or expired state parameter")
	ErrInvalidCode  = errors.New("invalid authorization code")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// TooManyAttemptsError reports a tripped re-authentication circuit breaker
// along with the remaining cooldown before another attempt is permitted.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many re-authentication attempts, retry after %s", e.RetryAfter.Round(time.Second))
}

// Is lets callers match against ErrTooManyAttempts with errors.Is.
func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
