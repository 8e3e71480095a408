// Package server exposes the broker over HTTP: session management and the
// interactive OAuth flow as JSON endpoints, and the tool surface mounted as
// a streamable MCP handler.
package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskbridge/go-asana-broker/auth"
	"github.com/taskbridge/go-asana-broker/internal/config"
	"github.com/taskbridge/go-asana-broker/tools"
)

const serverVersion = "1.0.0"

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	mcp    http.Handler
}

// New wires the HTTP surface around an authentication facade and tool set.
func New(cfg config.Config, authService *auth.Service, toolset *tools.Toolset) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if toolset == nil {
		return nil, errors.New("[server.New] toolset is required")
	}

	mcpServer := mcpserver.NewMCPServer(
		cfg.GetAppName(),
		serverVersion,
		mcpserver.WithToolCapabilities(false),
	)
	toolset.Register(mcpServer)

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		mcp:    mcpserver.NewStreamableHTTPServer(mcpServer),
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered route")
	}
}
