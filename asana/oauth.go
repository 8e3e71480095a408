package asana

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/taskbridge/go-asana-broker/internal/config"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Identity is the upstream user resolved from the token response or the
// identity endpoint.
type Identity struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenSet is the result of an authorization code exchange or a refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     Identity
}

type verifierEntry struct {
	verifier string
	created  time.Time
}

// OAuthClient drives the authorization code grant with PKCE against the
// Asana OAuth endpoints.
type OAuthClient struct {
	oauth     *oauth2.Config
	revokeURL string
	userURL   string
	stateTTL  time.Duration

	mu        sync.Mutex
	verifiers map[string]verifierEntry

	httpClient *http.Client
}

// NewOAuthClient builds an OAuth client from configuration.
func NewOAuthClient(cfg config.Config) *OAuthClient {
	return &OAuthClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetAsanaClientID(),
			ClientSecret: cfg.GetAsanaClientSecret(),
			RedirectURL:  cfg.GetAsanaRedirectURI(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.GetAsanaAuthURL(),
				TokenURL: cfg.GetAsanaTokenURL(),
			},
		},
		revokeURL:  cfg.GetAsanaRevokeURL(),
		userURL:    cfg.GetAsanaAPIBaseURL() + "/users/me",
		stateTTL:   cfg.GetStateTTL(),
		verifiers:  make(map[string]verifierEntry),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizationURL returns the upstream authorization URL for the given
// state, generating and caching a PKCE verifier for the later exchange.
func (c *OAuthClient) AuthorizationURL(state string) string {
	verifier := oauth2.GenerateVerifier()

	c.mu.Lock()
	c.pruneVerifiers()
	c.verifiers[state] = verifierEntry{verifier: verifier, created: NowTimeFunc()}
	c.mu.Unlock()

	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// pruneVerifiers drops PKCE verifiers past the state TTL. Callers must hold
// c.mu.
func (c *OAuthClient) pruneVerifiers() {
	cutoff := NowTimeFunc().Add(-c.stateTTL)
	for state, entry := range c.verifiers {
		if entry.created.Before(cutoff) {
			delete(c.verifiers, state)
		}
	}
}

// Exchange swaps an authorization code for a token set. The PKCE verifier
// cached for the state is single-use; an unknown or expired state fails
// with ErrInvalidState.
func (c *OAuthClient) Exchange(ctx context.Context, code, state string) (TokenSet, error) {
	c.mu.Lock()
	entry, ok := c.verifiers[state]
	delete(c.verifiers, state)
	c.mu.Unlock()

	if !ok || NowTimeFunc().Sub(entry.created) > c.stateTTL {
		return TokenSet{}, errors.Wrap(brokererrors.ErrInvalidState, "[OAuthClient.Exchange] verifier lookup")
	}

	tok, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(entry.verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
			return TokenSet{}, errors.Wrapf(brokererrors.ErrInvalidCode, "[OAuthClient.Exchange] status %d %s",
				retrieveErr.Response.StatusCode, retrieveErr.ErrorCode)
		}
		return TokenSet{}, errors.Wrap(err, "[OAuthClient.Exchange] code exchange")
	}
	return c.tokenSet(tok), nil
}

// Refresh mints a new token set from a refresh token. A definitive upstream
// rejection (invalid_grant and friends) surfaces as
// ErrUpstreamRefreshRejected and must not be retried; any other failure is
// transient.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return TokenSet{}, classifyRefreshError(err)
	}
	return c.tokenSet(tok), nil
}

// RevokeToken revokes an access or refresh token upstream. Best effort:
// a failed revocation is logged, not surfaced.
func (c *OAuthClient) RevokeToken(ctx context.Context, token string) error {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"token":         {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[OAuthClient.RevokeToken] build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("token revocation failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Warn().Int("status", resp.StatusCode).Msg("token revocation rejected")
	}
	return nil
}

// tokenSet converts an oauth2 token into a TokenSet, pulling identity
// metadata out of the extra response fields.
func (c *OAuthClient) tokenSet(tok *oauth2.Token) TokenSet {
	ts := TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Identity:     identityFromToken(tok),
	}
	return ts
}

// identityFromToken extracts the user object Asana includes in its token
// responses, falling back to the id_token claims when the data object is
// absent (the broker treats id_token claims as advisory metadata only, so
// an unverified parse is sufficient here).
func identityFromToken(tok *oauth2.Token) Identity {
	var ident Identity

	if data, ok := tok.Extra("data").(map[string]interface{}); ok {
		if gid, ok := data["gid"].(string); ok {
			ident.GID = gid
		} else if id, ok := data["id"].(string); ok {
			ident.GID = id
		}
		if name, ok := data["name"].(string); ok {
			ident.Name = name
		}
		if email, ok := data["email"].(string); ok {
			ident.Email = email
		}
	}
	if ident.GID != "" {
		return ident
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return ident
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		log.Debug().Err(err).Msg("id_token parse failed")
		return ident
	}
	if sub, ok := claims["sub"].(string); ok {
		ident.GID = sub
	}
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		ident.Email = email
	}
	return ident
}

// WhoAmI resolves the authenticated user from the identity endpoint.
func (c *OAuthClient) WhoAmI(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL, nil)
	if err != nil {
		return Identity{}, errors.Wrap(err, "[OAuthClient.WhoAmI] build request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Identity{}, errors.Wrap(err, "[OAuthClient.WhoAmI] request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Identity{}, errors.Errorf("[OAuthClient.WhoAmI] status %d", resp.StatusCode)
	}

	var body struct {
		Data Identity `json:"data"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return Identity{}, errors.Wrap(err, "[OAuthClient.WhoAmI] decode")
	}
	return body.Data, nil
}

// classifyRefreshError separates definitive token-endpoint rejections from
// transient failures. The oauth2 package reports non-2xx responses as
// *oauth2.RetrieveError; 4xx means the refresh token is gone for good.
func classifyRefreshError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		if code >= 400 && code < 500 {
			return errors.Wrapf(brokererrors.ErrUpstreamRefreshRejected, "[classifyRefreshError] status %d %s", code, retrieveErr.ErrorCode)
		}
	}
	return errors.Wrap(err, "[classifyRefreshError] transient refresh failure")
}
