package server

const (
	RouteHealth          = "/health"
	RouteSessions        = "/sessions"
	RouteSession         = "/sessions/{id}"
	RouteSessionValidate = "/sessions/{id}/validate"
	RouteOAuthStart      = "/oauth/start"
	RouteOAuthCallback   = "/oauth/callback"
	RouteMCP             = "/mcp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteFunc("POST "+RouteSessions, ChainMiddleware(s.CreateSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.GetSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSessionValidate, ChainMiddleware(s.ValidateSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteSession, ChainMiddleware(s.RevokeSessionHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteOAuthStart, ChainMiddleware(s.OAuthStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler(RouteMCP, ChainMiddleware(s.mcp.ServeHTTP, s.APIMiddleware()...))
}
