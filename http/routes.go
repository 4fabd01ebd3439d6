package http

// registerRoutes sets up all routes for the server.
func (s *Server) registerRoutes() {
	// Public metadata and health routes
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/health", s.handleHealthCheck)

	// Notification dispatch (bearer token authorized per request)
	s.echo.POST("/send", s.handleSend)
}
