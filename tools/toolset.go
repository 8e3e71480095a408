// Package tools exposes the Asana API as MCP tools. Every tool takes a
// session_id argument and resolves its access token through the
// authentication facade; the handlers here never see raw credentials
// beyond the lifetime of one call.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/auth"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/ratelimit"
	"github.com/taskbridge/go-asana-broker/sessions"
)

// Toolset registers the Asana tool surface against an MCP server.
type Toolset struct {
	auth       *auth.Service
	limiter    *ratelimit.Limiter
	apiBaseURL string
	brokerURL  string
}

// New creates a toolset. brokerURL is the externally reachable base URL of
// this broker, used to point callers at the interactive re-auth endpoint.
func New(authService *auth.Service, limiter *ratelimit.Limiter, apiBaseURL, brokerURL string) *Toolset {
	return &Toolset{
		auth:       authService,
		limiter:    limiter,
		apiBaseURL: apiBaseURL,
		brokerURL:  brokerURL,
	}
}

// Register adds every tool to the MCP server.
func (t *Toolset) Register(s *server.MCPServer) {
	t.registerTaskTools(s)
	t.registerProjectTools(s)
	t.registerSectionTools(s)
	t.registerRelationshipTools(s)
	t.registerOrganizationTools(s)
}

// sessionArg is the session_id option every tool shares.
func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Broker session identifier obtained from session creation"),
	)
}

// clientFor resolves a valid access token for the request's session and
// binds an API client to it. The second return value is a ready-made tool
// result when resolution fails.
func (t *Toolset) clientFor(ctx context.Context, request mcp.CallToolRequest) (*asana.Client, string, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, "", mcp.NewToolResultError("session_id argument is required")
	}

	token, err := t.auth.ResolveToken(ctx, sessionID)
	if err != nil {
		return nil, sessionID, t.authFailureResult(sessionID, err)
	}
	return asana.NewClient(t.apiBaseURL, token, t.limiter), sessionID, nil
}

// authFailureResult translates facade errors into caller guidance. Re-auth
// requirements come with the authorization entry point and a single
// permitted retry; an open circuit breaker comes with the remaining
// cooldown instead of an invitation to loop.
func (t *Toolset) authFailureResult(sessionID string, err error) *mcp.CallToolResult {
	var tooMany *brokererrors.TooManyAttemptsError
	switch {
	case brokererrors.As(err, &tooMany):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Too many authentication attempts for session %s. Wait %.0f seconds before trying again.",
			sessions.Abbrev(sessionID), tooMany.RetryAfter.Seconds()))

	case brokererrors.Is(err, brokererrors.ErrReauthRequired):
		if !t.auth.RecordRetry(sessionID) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Authentication for session %s failed after the permitted retry. Create a new session to continue.",
				sessions.Abbrev(sessionID)))
		}
		return mcp.NewToolResultError(fmt.Sprintf(
			"Authentication required for session %s.\nVisit %s/oauth/start?session=%s to re-authenticate, then retry this call once.",
			sessions.Abbrev(sessionID), t.brokerURL, sessionID))

	case brokererrors.Is(err, brokererrors.ErrSessionPending):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %s is awaiting authentication.\nVisit %s/oauth/start?session=%s to complete it.",
			sessions.Abbrev(sessionID), t.brokerURL, sessionID))

	case brokererrors.Is(err, brokererrors.ErrSessionRevoked):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %s has been revoked. Create a new session to continue.", sessions.Abbrev(sessionID)))

	case brokererrors.Is(err, brokererrors.ErrSessionNotFound):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %s not found. Create a new session to continue.", sessions.Abbrev(sessionID)))

	case brokererrors.Is(err, brokererrors.ErrRefreshTimeout):
		return mcp.NewToolResultError(
			"Temporary problem refreshing credentials with Asana. Try again shortly.")

	default:
		log.Error().Err(err).Str("session_id", sessions.Abbrev(sessionID)).Msg("token resolution failed")
		return mcp.NewToolResultError(fmt.Sprintf("Authentication error: %v", err))
	}
}

// apiResult converts an API call outcome into a tool result.
func apiResult(err error, text string) *mcp.CallToolResult {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Asana API error: %v", err))
	}
	return mcp.NewToolResultText(text)
}
