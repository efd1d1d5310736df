package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-oauth2-strategy/server/loginsession"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyLoginSession stores the caller's loginsession.Session
	ContextKeyLoginSession ContextKey = "login_session"
	// ContextKeyLoginSessionID stores the id of that session
	ContextKeyLoginSessionID ContextKey = "login_session_id"
)

// LoginSessionFromContext returns the login session attached by LoadLoginSession.
func LoginSessionFromContext(ctx context.Context) (loginsession.Session, bool) {
	session, ok := ctx.Value(ContextKeyLoginSession).(loginsession.Session)
	return session, ok
}

// LoadLoginSession attaches the login session named by the session cookie, if
// any, to the request context.
func (s *Server) LoadLoginSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(loggedInSessionID)
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}

		session, err := s.loginSessions.Get(cookie.Value)
		if err != nil {
			// Stale cookie
			s.ClearLoginSessionCookie(w)
			next(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyLoginSession, session)
		ctx = context.WithValue(ctx, ContextKeyLoginSessionID, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// RequireLoginSession rejects requests without a live login session.
// It must run after LoadLoginSession.
func (s *Server) RequireLoginSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := LoginSessionFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", contentTypeJSON)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"No login session"}`))
			return
		}
		next(w, r)
	}
}
