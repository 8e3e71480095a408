package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/taskbridge/go-asana-broker/asana"
)

// fakeUpstream is a scriptable stand-in for the OAuth client.
type fakeUpstream struct {
	mu           sync.Mutex
	refreshCalls int
	exchangeFn   func(code, state string) (asana.TokenSet, error)
	refreshFn    func(refreshToken string) (asana.TokenSet, error)
	identity     asana.Identity
	revoked      []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		identity: asana.Identity{GID: "u1", Name: "Jo", Email: "jo@example.com"},
	}
}

func validTokenSet() asana.TokenSet {
	return asana.TokenSet{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (f *fakeUpstream) AuthorizationURL(state string) string {
	return "https://upstream.example/authorize?state=" + state
}

func (f *fakeUpstream) Exchange(ctx context.Context, code, state string) (asana.TokenSet, error) {
	if f.exchangeFn != nil {
		return f.exchangeFn(code, state)
	}
	ts := validTokenSet()
	ts.Identity = f.identity
	return ts, nil
}

func (f *fakeUpstream) Refresh(ctx context.Context, refreshToken string) (asana.TokenSet, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()

	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return validTokenSet(), nil
}

func (f *fakeUpstream) RevokeToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeUpstream) WhoAmI(ctx context.Context, accessToken string) (asana.Identity, error) {
	return f.identity, nil
}

func (f *fakeUpstream) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeUpstream) revokedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...)
}
