package config

import "time"

type SessionConfig interface {
	GetTokenExpiryBuffer() time.Duration
	GetRefreshLockTimeout() time.Duration
	GetRefreshRetries() int
	GetRefreshRetryBackoff() time.Duration
	GetReauthMaxAttempts() int
	GetReauthWindow() time.Duration
	GetToolRetryCeiling() int
	GetMaxSessionAge() time.Duration
	GetSweepInterval() time.Duration
	GetStateTTL() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetTokenExpiryBuffer is the safety margin before actual token expiry at
// which a refresh is proactively triggered.
func (Session) GetTokenExpiryBuffer() time.Duration {
	return 5 * time.Minute
}

// GetRefreshLockTimeout bounds how long a caller waits for the per-session
// refresh lock before failing with a refresh timeout.
func (Session) GetRefreshLockTimeout() time.Duration {
	return 10 * time.Second
}

func (Session) GetRefreshRetries() int {
	return 2
}

func (Session) GetRefreshRetryBackoff() time.Duration {
	return 500 * time.Millisecond
}

func (Session) GetReauthMaxAttempts() int {
	return 3
}

func (Session) GetReauthWindow() time.Duration {
	return 10 * time.Minute
}

// GetToolRetryCeiling caps how many times the tool layer may retry a call
// after a re-authentication cycle.
func (Session) GetToolRetryCeiling() int {
	return 1
}

func (Session) GetMaxSessionAge() time.Duration {
	return 30 * 24 * time.Hour
}

func (Session) GetSweepInterval() time.Duration {
	return 12 * time.Hour
}

// GetStateTTL is how long a pending OAuth state/PKCE verifier pair is kept
// before it is discarded.
func (Session) GetStateTTL() time.Duration {
	return 10 * time.Minute
}
