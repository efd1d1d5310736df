package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.StdMiddleware(s.LoadLoginSession)...))
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.StdMiddleware(s.LoadLoginSession, s.RequireLoginSession)...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteHandler("GET "+RouteFailure, ChainMiddleware(s.FailureHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.StdMiddleware(s.LoadLoginSession)...))

	for _, fc := range s.strategies {
		cfg := fc.Config()
		s.RegisterRouteHandler("GET "+cfg.RequestPath(), ChainMiddleware(s.RequestPhaseHandler(fc), s.StdMiddleware()...))
		s.RegisterRouteHandler("GET "+cfg.CallbackPath, ChainMiddleware(s.CallbackHandler(fc), s.StdMiddleware()...))
		s.RegisterRouteHandler("POST "+cfg.CallbackPath, ChainMiddleware(s.CallbackHandler(fc), s.StdMiddleware()...)) // For form_post response mode
	}
}
