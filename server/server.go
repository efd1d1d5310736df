package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth2-strategy/internal/config"
	"github.com/jrsteele09/go-oauth2-strategy/server/loginsession"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/rs/zerolog/log"
)

// Server is a reference host mounting one or more strategies.
type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	loginSessions loginsession.Repo
	strategies    map[string]*strategy.FlowController
}

func New(config config.Config, loginSessionRepo loginsession.Repo, controllers ...*strategy.FlowController) (*Server, error) {
	if len(controllers) == 0 {
		return nil, fmt.Errorf("[Server New] at least one strategy is required")
	}

	s := &Server{
		env:           config.GetEnv(),
		mux:           http.NewServeMux(),
		config:        config,
		loginSessions: loginSessionRepo,
		strategies:    make(map[string]*strategy.FlowController, len(controllers)),
	}

	for _, fc := range controllers {
		name := fc.Config().Name
		if _, reserved := reservedStrategyNames[name]; reserved {
			return nil, fmt.Errorf("[Server New] strategy name %q is reserved", name)
		}
		if _, exists := s.strategies[name]; exists {
			return nil, fmt.Errorf("[Server New] duplicate strategy %q", name)
		}
		s.strategies[name] = fc
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
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if colour, ok := methodColours[method]; ok {
		displayMethod = colour + paddedMethod + colourReset
	} else {
		displayMethod = colourGray + paddedMethod + colourReset
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
