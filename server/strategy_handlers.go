package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth2-strategy/server/loginsession"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// RequestPhaseHandler starts a flow: a new flow id is bound to the browser and
// the user is redirected to the authorization server.
func (s *Server) RequestPhaseHandler(fc *strategy.FlowController) http.HandlerFunc {
	cfg := fc.Config()
	name := cfg.Name
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := uuid.NewString()
		req := s.hostRequest(r, flowSessionKey(name, flowID))

		sink := redirectSink{
			w: w,
			r: r,
			beforeRedirect: func() {
				s.SetFlowCookie(w, flowID, cfg.CallbackPath, r)
			},
		}
		if err := fc.RequestPhase(r.Context(), req, sink); err != nil {
			log.Err(err).Str("strategy", name).Msg("Failed to start authentication")
			http.Error(w, "Failed to start authentication", http.StatusInternalServerError)
			return
		}
	}
}

// CallbackHandler completes a flow started by RequestPhaseHandler.
func (s *Server) CallbackHandler(fc *strategy.FlowController) http.HandlerFunc {
	cfg := fc.Config()
	name := cfg.Name
	return func(w http.ResponseWriter, r *http.Request) {
		var flowID string
		if cookie, err := r.Cookie(flowCookieName); err == nil {
			flowID = cookie.Value
		}
		// The flow cookie is single use, like the state it points at.
		s.ClearFlowCookie(w, cfg.CallbackPath)

		req := s.hostRequest(r, flowSessionKey(name, flowID))
		fc.CallbackPhase(r.Context(), req, &outcomeSink{server: s, w: w, r: r, strategy: name})
	}
}

// FailureHandler renders the terminal failure of a flow.
func (s *Server) FailureHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := r.URL.Query().Get("message")
		if message == "" {
			message = "unknown_error"
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprintf(w, "Authentication failed (%s): %s\n", r.URL.Query().Get("strategy"), message)
	}
}

// IndexHandler reports whether the browser holds a login session. Tokens are
// never echoed back.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"authenticated": false}
		if session, ok := LoginSessionFromContext(r.Context()); ok {
			resp = sessionStatus(session)
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// MeHandler describes the caller's login session.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := LoginSessionFromContext(r.Context())
		resp := sessionStatus(session)
		resp["created_at"] = session.CreatedAt.UTC().Format(time.RFC3339)
		resp["session_expires_at"] = session.ExpiresAt.UTC().Format(time.RFC3339)

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func sessionStatus(session loginsession.Session) map[string]any {
	resp := map[string]any{
		"authenticated":     true,
		"strategy":          session.Strategy,
		"expires":           session.Credential.Expires,
		"has_refresh_token": session.Credential.RefreshToken != "",
	}
	if session.Credential.Expires {
		resp["expires_at"] = session.Credential.ExpiresAt
	}
	return resp
}

// LogoutHandler drops the login session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, ok := r.Context().Value(ContextKeyLoginSessionID).(string); ok {
			if err := s.loginSessions.Delete(sessionID); err != nil {
				log.Err(err).Msg("Logout: Failed to delete login session")
			}
		}
		s.ClearLoginSessionCookie(w)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// redirectSink issues the request phase redirect.
type redirectSink struct {
	w              http.ResponseWriter
	r              *http.Request
	beforeRedirect func()
}

func (rs redirectSink) Redirect(location string) error {
	if rs.beforeRedirect != nil {
		rs.beforeRedirect()
	}
	http.Redirect(rs.w, rs.r, location, http.StatusFound)
	return nil
}

// outcomeSink turns the callback outcome into a login session or a failure redirect.
type outcomeSink struct {
	server   *Server
	w        http.ResponseWriter
	r        *http.Request
	strategy string
}

func (o *outcomeSink) OnSuccess(cred strategy.Credential) {
	now := loginsession.NowTimeFunc()
	maxAge := o.server.config.GetLoginSessionAge()
	session := loginsession.Session{
		Strategy:   o.strategy,
		Credential: cred,
		CreatedAt:  now,
		ExpiresAt:  now.Add(maxAge),
	}

	sessionID := uuid.NewString()
	if err := o.server.loginSessions.Upsert(sessionID, session); err != nil {
		log.Err(err).Str("strategy", o.strategy).Msg("Failed to create login session")
		http.Error(o.w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	o.server.SetLoginSessionCookie(o.w, sessionID, o.r, int(maxAge/time.Second))
	log.Info().Str("strategy", o.strategy).Bool("expires", cred.Expires).Msg("User authenticated")
	http.Redirect(o.w, o.r, RouteIndex, http.StatusSeeOther)
}

func (o *outcomeSink) OnFailure(cbErr *strategy.CallbackError) {
	log.Warn().Err(cbErr).Str("strategy", o.strategy).Str("kind", string(cbErr.Kind)).Msg("Authentication failed")
	http.Redirect(o.w, o.r, failureURL(cbErr.Kind, o.strategy), http.StatusSeeOther)
}
