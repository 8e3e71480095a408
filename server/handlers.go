package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/sessions"
)

type errorResponse struct {
	Error            string  `json:"error"`
	Message          string  `json:"message"`
	AuthorizationURL string  `json:"authorization_url,omitempty"`
	RetryAfter       float64 `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// CreateSessionHandler creates a pending session for a desktop instance and
// returns the authorization URL the user must visit.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	type createRequest struct {
		DesktopInstanceID string `json:"desktop_instance_id"`
	}
	type createResponse struct {
		SessionID        string `json:"session_id"`
		AuthorizationURL string `json:"authorization_url"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}
		if req.DesktopInstanceID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "desktop_instance_id is required")
			return
		}

		sessionID, authURL, err := s.auth.CreateSession(req.DesktopInstanceID)
		if err != nil {
			log.Error().Err(err).Msg("session creation failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not create session")
			return
		}

		writeJSON(w, http.StatusCreated, createResponse{SessionID: sessionID, AuthorizationURL: authURL})
	}
}

// ListSessionsHandler returns diagnostic snapshots of every session.
func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps, err := s.auth.Snapshots()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not list sessions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(snaps),
			"sessions": snaps,
		})
	}
}

// GetSessionHandler returns one session's diagnostic snapshot.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.auth.Snapshot(r.PathValue("id"))
		if err != nil {
			s.writeAuthError(w, r.PathValue("id"), err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// ValidateSessionHandler resolves a token for the session without returning
// it, reporting whether tool calls would currently succeed.
func (s *Server) ValidateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if _, err := s.auth.ResolveToken(r.Context(), sessionID); err != nil {
			s.writeAuthError(w, sessionID, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
	}
}

// RevokeSessionHandler explicitly revokes a session.
func (s *Server) RevokeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if err := s.auth.Revoke(r.Context(), sessionID); err != nil {
			s.writeAuthError(w, sessionID, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// OAuthStartHandler redirects the user's browser into the upstream
// authorization flow for an existing session.
func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "session query parameter is required")
			return
		}

		authURL, err := s.auth.AuthorizationURL(sessionID)
		if err != nil {
			s.writeAuthError(w, sessionID, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the authorization flow. The state parameter
// carries the session ID the flow was started for.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if errCode := query.Get("error"); errCode != "" {
			writeError(w, http.StatusBadRequest, "authorization_denied",
				fmt.Sprintf("authorization failed upstream: %s", errCode))
			return
		}

		code := query.Get("code")
		state := query.Get("state")
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "code and state query parameters are required")
			return
		}

		snap, err := s.auth.HandleCallback(r.Context(), state, code)
		if err != nil {
			s.writeAuthError(w, state, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		user := "your Asana account"
		if snap.User != nil {
			user = snap.User.Name
		}
		fmt.Fprintf(w, successPage, user)
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Authentication Complete</title></head>
<body>
<h1>Authentication complete</h1>
<p>Connected as %s. You can close this window and return to your desktop agent.</p>
</body>
</html>
`

// writeAuthError maps facade errors onto HTTP responses.
func (s *Server) writeAuthError(w http.ResponseWriter, sessionID string, err error) {
	var tooMany *brokererrors.TooManyAttemptsError
	switch {
	case brokererrors.As(err, &tooMany):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:      "too_many_attempts",
			Message:    "too many re-authentication attempts; wait before retrying",
			RetryAfter: tooMany.RetryAfter.Seconds(),
		})

	case brokererrors.Is(err, brokererrors.ErrReauthRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:            "reauth_required",
			Message:          "interactive re-authentication is required",
			AuthorizationURL: fmt.Sprintf("%s%s?session=%s", s.config.GetBaseURL(), RouteOAuthStart, sessionID),
		})

	case brokererrors.Is(err, brokererrors.ErrSessionPending):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:            "session_pending",
			Message:          "session is awaiting initial authentication",
			AuthorizationURL: fmt.Sprintf("%s%s?session=%s", s.config.GetBaseURL(), RouteOAuthStart, sessionID),
		})

	case brokererrors.Is(err, brokererrors.ErrSessionRevoked):
		writeError(w, http.StatusGone, "session_revoked", "session has been revoked")

	case brokererrors.Is(err, brokererrors.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "session not found")

	case brokererrors.Is(err, brokererrors.ErrInvalidState), brokererrors.Is(err, brokererrors.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_grant", "authorization code or state is invalid")

	case brokererrors.Is(err, brokererrors.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_state", "session cannot accept this operation in its current state")

	case brokererrors.Is(err, brokererrors.ErrRefreshTimeout):
		writeError(w, http.StatusServiceUnavailable, "refresh_timeout", "temporary problem refreshing credentials")

	default:
		log.Error().Err(err).Str("session_id", sessions.Abbrev(sessionID)).Msg("unhandled auth error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
