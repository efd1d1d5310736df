// Package testprovider is a minimal in-process OAuth2 authorization server
// used to drive the strategy end to end in tests.
package testprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth2-strategy/internal/utils"
	"github.com/jrsteele09/go-oauth2-strategy/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	AuthorizePath = "/authorize"
	TokenPath     = "/token"
	DiscoveryPath = "/.well-known/openid-configuration"
)

// Options controls how the provider answers.
type Options struct {
	ClientID     string
	ClientSecret string

	// ExpiresIn is the access token lifetime in seconds; 0 issues non-expiring tokens.
	ExpiresIn int
	// ExpiresAt, when set, is sent as expires_at instead of expires_in.
	ExpiresAt int64
	// RefreshExpiresIn is the lifetime of tokens issued by the refresh grant.
	RefreshExpiresIn int
	// IssueRefreshToken adds a refresh_token to code exchanges.
	IssueRefreshToken bool

	// AuthorizeError makes the authorize endpoint redirect back with this error.
	AuthorizeError string
	// DropState omits state from the authorize redirect.
	DropState bool

	// TokenDelay is slept before answering token requests.
	TokenDelay time.Duration
	// MalformedTokenResponse answers token requests with invalid JSON.
	MalformedTokenResponse bool
}

// TokenRequest is a recorded call to the token endpoint.
type TokenRequest struct {
	Form   url.Values
	Header http.Header
}

type pendingCode struct {
	redirectURI string
	scope       string
}

// Provider is the fake authorization server.
type Provider struct {
	opts       Options
	signingKey []byte

	mu            sync.Mutex
	codes         map[string]pendingCode
	refreshTokens map[string]string // refresh token -> scope
	requests      []TokenRequest

	server *httptest.Server
}

// New creates a provider. Call Start to serve it.
func New(opts Options) *Provider {
	if opts.ClientID == "" {
		opts.ClientID = "test-client"
	}
	if opts.ClientSecret == "" {
		opts.ClientSecret = "test-secret"
	}
	return &Provider{
		opts:          opts,
		signingKey:    []byte(uuid.NewString()),
		codes:         make(map[string]pendingCode),
		refreshTokens: make(map[string]string),
	}
}

// Start serves the provider on a local listener.
func (p *Provider) Start() *Provider {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AuthorizePath, p.authorize)
	mux.HandleFunc("POST "+TokenPath, p.token)
	mux.HandleFunc("GET "+DiscoveryPath, p.discovery)
	p.server = httptest.NewServer(mux)
	return p
}

// Close stops the server.
func (p *Provider) Close() {
	if p.server != nil {
		p.server.Close()
	}
}

func (p *Provider) URL() string        { return p.server.URL }
func (p *Provider) AuthURL() string    { return p.server.URL + AuthorizePath }
func (p *Provider) TokenURL() string   { return p.server.URL + TokenPath }
func (p *Provider) Options() Options   { return p.opts }
func (p *Provider) SigningKey() []byte { return p.signingKey }

// TokenRequests returns the recorded token endpoint calls.
func (p *Provider) TokenRequests() []TokenRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TokenRequest(nil), p.requests...)
}

// IssueCode registers a code for redirectURI without going through the
// authorize endpoint.
func (p *Provider) IssueCode(redirectURI, scope string) string {
	code := uuid.NewString()
	p.mu.Lock()
	p.codes[code] = pendingCode{redirectURI: redirectURI, scope: scope}
	p.mu.Unlock()
	return code
}

func (p *Provider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get(oauth2.ParamClientID) != p.opts.ClientID {
		http.Error(w, "unknown client", http.StatusBadRequest)
		return
	}
	if q.Get(oauth2.ParamResponseType) != string(oauth2.CodeResponseType) {
		http.Error(w, "unsupported response_type", http.StatusBadRequest)
		return
	}
	redirectURI, err := url.Parse(q.Get(oauth2.ParamRedirectURI))
	if err != nil || redirectURI.String() == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	back := redirectURI.Query()
	if state := q.Get(oauth2.ParamState); state != "" && !p.opts.DropState {
		back.Set(oauth2.ParamState, state)
	}
	if p.opts.AuthorizeError != "" {
		back.Set(oauth2.ParamError, p.opts.AuthorizeError)
		back.Set(oauth2.ParamErrorDescription, "The user denied the request")
	} else {
		back.Set(oauth2.ParamCode, p.IssueCode(redirectURI.String(), q.Get(oauth2.ParamScope)))
	}
	redirectURI.RawQuery = back.Encode()

	http.Redirect(w, r, redirectURI.String(), http.StatusFound)
}

// discovery serves the subset of the OpenID provider metadata the strategy reads.
func (p *Provider) discovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                p.server.URL,
		"authorization_endpoint":                p.AuthURL(),
		"token_endpoint":                        p.TokenURL(),
		"jwks_uri":                              p.server.URL + "/jwks",
		"response_types_supported":              []string{string(oauth2.CodeResponseType)},
		"grant_types_supported":                 []string{string(oauth2.AuthorizationCodeGrant), string(oauth2.RefreshTokenGrant)},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
	})
}

func (p *Provider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, TokenRequest{Form: cloneValues(r.PostForm), Header: r.Header.Clone()})
	p.mu.Unlock()

	if p.opts.TokenDelay > 0 {
		select {
		case <-time.After(p.opts.TokenDelay):
		case <-r.Context().Done():
			return
		}
	}

	if !p.authenticateClient(r) {
		writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	if p.opts.MalformedTokenResponse {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "abc",`))
		return
	}

	switch oauth2.GrantType(r.PostForm.Get(oauth2.ParamGrantType)) {
	case oauth2.AuthorizationCodeGrant:
		p.exchangeCode(w, r)
	case oauth2.RefreshTokenGrant:
		p.refresh(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unsupported_grant_type", "")
	}
}

func (p *Provider) exchangeCode(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get(oauth2.ParamCode)

	p.mu.Lock()
	pending, ok := p.codes[code]
	delete(p.codes, code)
	p.mu.Unlock()

	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_grant", "unknown or used authorization code")
		return
	}
	if pending.redirectURI != r.PostForm.Get(oauth2.ParamRedirectURI) {
		writeError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
		return
	}

	resp, err := p.newTokenResponse(pending.scope, p.opts.ExpiresIn, p.opts.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if p.opts.IssueRefreshToken {
		rt := uuid.NewString()
		p.mu.Lock()
		p.refreshTokens[rt] = pending.scope
		p.mu.Unlock()
		resp.RefreshToken = utils.Ptr(rt)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *Provider) refresh(w http.ResponseWriter, r *http.Request) {
	rt := r.PostForm.Get(oauth2.ParamRefreshToken)

	p.mu.Lock()
	scope, ok := p.refreshTokens[rt]
	p.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_grant", "unknown refresh token")
		return
	}

	resp, err := p.newTokenResponse(scope, p.opts.RefreshExpiresIn, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *Provider) authenticateClient(r *http.Request) bool {
	id, secret, ok := r.BasicAuth()
	if ok {
		id, _ = url.QueryUnescape(id)
		secret, _ = url.QueryUnescape(secret)
	} else {
		id, secret = r.PostForm.Get(oauth2.ParamClientID), r.PostForm.Get(oauth2.ParamClientSecret)
	}
	return id == p.opts.ClientID && secret == p.opts.ClientSecret
}

// newTokenResponse mints a signed access token.
func (p *Provider) newTokenResponse(scope string, expiresIn int, expiresAt int64) (*oauth2.TokenResponse, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":       p.server.URL,
		"aud":       p.opts.ClientID,
		"client_id": p.opts.ClientID,
		"sub":       "test-user",
		"scope":     scope,
		"iat":       now.Unix(),
		"jti":       uuid.New().String(),
	}
	if expiresIn > 0 {
		claims["exp"] = now.Add(time.Duration(expiresIn) * time.Second).Unix()
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		return nil, err
	}

	resp := &oauth2.TokenResponse{
		AccessToken: utils.Ptr(signed),
		TokenType:   "bearer",
		Scope:       scope,
	}
	if expiresAt != 0 {
		resp.ExpiresAt = expiresAt
	} else {
		resp.ExpiresIn = expiresIn
	}
	return resp, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, oauth2.ErrorResponse{Error: code, ErrorDescription: description})
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
