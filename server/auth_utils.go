package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oauth2-strategy/strategy"
)

const (
	// loggedInSessionID is the name of the cookie holding the login session id
	loggedInSessionID = "loggedInSessionId"
	// flowCookieName is the name of the cookie tracking one in-flight authorization
	flowCookieName = "oauth2_flow"
	// flowCookieMaxAge is long enough for a user to complete the provider's consent screen
	flowCookieMaxAge = 600
)

func (s *Server) SetLoginSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request, maxAge int) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     loggedInSessionID,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearLoginSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     loggedInSessionID,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// SetFlowCookie binds the browser to one pending flow. The cookie is scoped to
// the strategy's callback path. Lax is required so the cookie survives the
// top-level redirect back from the provider.
func (s *Server) SetFlowCookie(w http.ResponseWriter, flowID, callbackPath string, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     flowCookieName,
		Value:    flowID,
		Path:     callbackPath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   flowCookieMaxAge,
	})
}

func (s *Server) ClearFlowCookie(w http.ResponseWriter, callbackPath string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flowCookieName,
		Value:    "",
		Path:     callbackPath,
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// flowSessionKey scopes a flow id to its strategy.
func flowSessionKey(strategyName, flowID string) string {
	if flowID == "" {
		return ""
	}
	return strategyName + ":" + flowID
}

// fullHost is the configured public base URL, or the one the request arrived on.
func (s *Server) fullHost(r *http.Request) string {
	if base := s.config.GetBaseURL(); base != "" {
		return base
	}
	return getScheme(r) + "://" + r.Host
}

// hostRequest adapts an inbound request for the strategy. Params holds both
// query and POST form values so form_post callbacks work.
func (s *Server) hostRequest(r *http.Request, sessionKey string) strategy.HostRequest {
	params := url.Values{}
	if err := r.ParseForm(); err == nil {
		params = r.Form
	}
	return strategy.HostRequest{
		FullHost:   s.fullHost(r),
		ScriptName: "",
		SessionKey: sessionKey,
		Params:     params,
	}
}

func failureURL(kind strategy.ErrorKind, strategyName string) string {
	q := url.Values{}
	q.Set("message", string(kind))
	q.Set("strategy", strategyName)
	return RouteFailure + "?" + q.Encode()
}
