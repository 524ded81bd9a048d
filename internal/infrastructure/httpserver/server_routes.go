package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	password := api.Group("/password")
	password.POST("/set", s.setPassword)
	password.POST("/reset-request", s.requestPasswordReset, s.middleware.RateLimit.PerClient())

	api.GET("/links/:id/validity", s.checkLinkValidity)

	admin := api.Group("")
	admin.Use(s.middleware.JWT.RequireAdmin())
	admin.POST("/links", s.issueLink)
	admin.POST("/welcome/resend", s.resendWelcomeEmail)
}
