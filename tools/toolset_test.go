package tools

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/auth"
	"github.com/taskbridge/go-asana-broker/internal/config"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/ratelimit"
	"github.com/taskbridge/go-asana-broker/sessions"
)

type stubUpstream struct{}

func (stubUpstream) AuthorizationURL(state string) string { return "https://up.example?state=" + state }

func (stubUpstream) Exchange(ctx context.Context, code, state string) (asana.TokenSet, error) {
	return asana.TokenSet{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     asana.Identity{GID: "u1", Name: "Jo"},
	}, nil
}

func (stubUpstream) Refresh(ctx context.Context, refreshToken string) (asana.TokenSet, error) {
	return asana.TokenSet{}, brokererrors.ErrUpstreamRefreshRejected
}

func (stubUpstream) RevokeToken(ctx context.Context, token string) error { return nil }

func (stubUpstream) WhoAmI(ctx context.Context, accessToken string) (asana.Identity, error) {
	return asana.Identity{GID: "u1"}, nil
}

func newTestToolset(t *testing.T) (*Toolset, *auth.Service) {
	t.Helper()
	repo := sessions.NewInMemoryRepo()
	authService, err := auth.NewService(repo, stubUpstream{}, config.Session{})
	require.NoError(t, err)

	ts := New(authService, ratelimit.New(100, time.Minute), "https://api.example", "http://localhost:8080")
	return ts, authService
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestAuthFailureResultReauthGuidance(t *testing.T) {
	ts, authService := newTestToolset(t)
	sessionID, _, err := authService.CreateSession("desktop-1")
	require.NoError(t, err)
	_, err = authService.HandleCallback(context.Background(), sessionID, "code")
	require.NoError(t, err)

	result := ts.authFailureResult(sessionID, brokererrors.ErrReauthRequired)
	require.True(t, result.IsError)
	text := resultText(t, result)
	require.Contains(t, text, "/oauth/start?session="+sessionID)
	require.Contains(t, text, "retry this call once")

	// The single permitted retry has been consumed.
	result = ts.authFailureResult(sessionID, brokererrors.ErrReauthRequired)
	text = resultText(t, result)
	require.Contains(t, text, "Create a new session")
}

func TestAuthFailureResultBreakerOpen(t *testing.T) {
	ts, _ := newTestToolset(t)

	result := ts.authFailureResult("some-session", &brokererrors.TooManyAttemptsError{RetryAfter: 90 * time.Second})
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "Wait 90 seconds")
}

func TestAuthFailureResultSessionStates(t *testing.T) {
	ts, _ := newTestToolset(t)

	require.Contains(t, resultText(t, ts.authFailureResult("s", brokererrors.ErrSessionPending)), "awaiting authentication")
	require.Contains(t, resultText(t, ts.authFailureResult("s", brokererrors.ErrSessionRevoked)), "revoked")
	require.Contains(t, resultText(t, ts.authFailureResult("s", brokererrors.ErrSessionNotFound)), "not found")
	require.Contains(t, resultText(t, ts.authFailureResult("s", brokererrors.ErrRefreshTimeout)), "Try again shortly")
}

func TestClientForRequiresSessionArgument(t *testing.T) {
	ts, _ := newTestToolset(t)

	request := mcp.CallToolRequest{}
	_, _, errResult := ts.clientFor(context.Background(), request)
	require.NotNil(t, errResult)
	require.Contains(t, resultText(t, errResult), "session_id")
}

func TestClientForResolvesToken(t *testing.T) {
	ts, authService := newTestToolset(t)
	sessionID, _, err := authService.CreateSession("desktop-1")
	require.NoError(t, err)
	_, err = authService.HandleCallback(context.Background(), sessionID, "code")
	require.NoError(t, err)

	request := mcp.CallToolRequest{}
	request.Params.Arguments = map[string]interface{}{"session_id": sessionID}

	client, gotID, errResult := ts.clientFor(context.Background(), request)
	require.Nil(t, errResult)
	require.NotNil(t, client)
	require.Equal(t, sessionID, gotID)
}
