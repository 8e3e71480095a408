package asana_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/internal/config"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
)

// newTestOAuthClient points the OAuth endpoints at a local test server.
func newTestOAuthClient(t *testing.T, handler http.HandlerFunc) *asana.OAuthClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("ASANA_CLIENT_ID", "client-1")
	t.Setenv("ASANA_CLIENT_SECRET", "secret-1")
	t.Setenv("ASANA_AUTH_URL", srv.URL+"/authorize")
	t.Setenv("ASANA_TOKEN_URL", srv.URL+"/token")
	t.Setenv("ASANA_REVOKE_URL", srv.URL+"/revoke")
	t.Setenv("ASANA_API_BASE_URL", srv.URL+"/api/1.0")

	return asana.NewOAuthClient(config.New())
}

func TestAuthorizationURLCarriesStateAndPKCEChallenge(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {})

	raw := client.AuthorizationURL("state-abc")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "state-abc", q.Get("state"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
}

func TestExchangeRequiresKnownState(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.Exchange(context.Background(), "code", "never-started")
	require.ErrorIs(t, err, brokererrors.ErrInvalidState)
}

func TestExchangeVerifierIsSingleUse(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"data":          map[string]string{"gid": "u1", "name": "Jo", "email": "jo@example.com"},
		})
	})

	client.AuthorizationURL("state-1")

	set, err := client.Exchange(context.Background(), "code", "state-1")
	require.NoError(t, err)
	require.Equal(t, "access-1", set.AccessToken)
	require.Equal(t, "refresh-1", set.RefreshToken)
	require.Equal(t, "u1", set.Identity.GID)
	require.Equal(t, "jo@example.com", set.Identity.Email)
	require.False(t, set.ExpiresAt.IsZero())

	_, err = client.Exchange(context.Background(), "code", "state-1")
	require.ErrorIs(t, err, brokererrors.ErrInvalidState)
}

func TestExchangeRejectedCodeMapsToInvalidCode(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	})

	client.AuthorizationURL("state-1")
	_, err := client.Exchange(context.Background(), "bad-code", "state-1")
	require.ErrorIs(t, err, brokererrors.ErrInvalidCode)
}

func TestRefreshClassifiesDefinitiveRejection(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	})

	_, err := client.Refresh(context.Background(), "dead-refresh")
	require.ErrorIs(t, err, brokererrors.ErrUpstreamRefreshRejected)
}

func TestRefreshServerErrorIsTransient(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Refresh(context.Background(), "refresh-1")
	require.Error(t, err)
	require.False(t, brokererrors.Is(err, brokererrors.ErrUpstreamRefreshRejected))
}

func TestRefreshReturnsNewTokenSet(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "refresh-1", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})

	set, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", set.AccessToken)
	require.Equal(t, "refresh-2", set.RefreshToken)
}

func TestRevokeTokenIsBestEffort(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	require.NoError(t, client.RevokeToken(context.Background(), "some-token"))
}

func TestWhoAmIDecodesIdentity(t *testing.T) {
	client := newTestOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/1.0/users/me", r.URL.Path)
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"gid": "u1", "name": "Jo", "email": "jo@example.com"},
		})
	})

	ident, err := client.WhoAmI(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "u1", ident.GID)
	require.Equal(t, "Jo", ident.Name)
}
