package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	oauthparams "github.com/jrsteele09/go-oauth2-strategy/oauth2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

// TokenExchanger trades authorization codes for access tokens.
//
// Thread-safe: Yes, it holds no per-call state.
type TokenExchanger struct {
	config     *xoauth2.Config
	httpClient *http.Client
	timeout    time.Duration
	refresh    bool
	now        func() time.Time
	logger     zerolog.Logger
}

// TokenExchangerOptions configures a TokenExchanger.
type TokenExchangerOptions struct {
	// HTTPClient is used for token endpoint calls (nil uses http.DefaultClient).
	HTTPClient *http.Client

	// Now is the clock used for expiry checks (nil uses time.Now).
	Now func() time.Time

	// Logger for debug messages (nil uses the global zerolog logger).
	Logger *zerolog.Logger
}

// NewTokenExchanger creates an exchanger for cfg's client and token endpoint.
func NewTokenExchanger(cfg FlowConfig, opts TokenExchangerOptions) *TokenExchanger {
	cfg = cfg.withDefaults()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &TokenExchanger{
		config:     cfg.oauth2Config(),
		httpClient: httpClient,
		timeout:    cfg.ExchangeTimeout,
		refresh:    *cfg.RefreshExpiredToken,
		now:        now,
		logger:     logger,
	}
}

// ExchangeRequest contains the parameters for one code exchange.
type ExchangeRequest struct {
	Code        string
	RedirectURI string

	// TokenEndpointOptions are sent as request headers.
	TokenEndpointOptions map[string]string

	// ExtraTokenParams are added to the form body. Protocol fields are skipped.
	ExtraTokenParams map[string]string
}

// ExchangeResult contains the token from a successful exchange.
type ExchangeResult struct {
	Token AccessToken

	// Refreshed is true when the exchanged token was already expired and was
	// replaced by a refreshed one.
	Refreshed bool
}

// Exchange posts the authorization code to the token endpoint. A token that
// is already expired on receipt is refreshed once when refresh is enabled.
// Errors are always *CallbackError.
func (e *TokenExchanger) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	token, err := e.ExchangeCode(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &ExchangeResult{Token: *token}

	if !e.NeedsRefresh(result.Token) {
		return result, nil
	}

	refreshed, err := e.Refresh(ctx, result.Token.RefreshToken, req.TokenEndpointOptions)
	if err != nil {
		return nil, err
	}
	result.Token = *refreshed
	result.Refreshed = true
	return result, nil
}

// ExchangeCode performs only the authorization_code grant, with no refresh.
// Errors are always *CallbackError.
func (e *TokenExchanger) ExchangeCode(ctx context.Context, req ExchangeRequest) (*AccessToken, error) {
	if req.Code == "" {
		return nil, ClassifyError(errors.ErrMissingCode)
	}

	opts := make([]xoauth2.AuthCodeOption, 0, len(req.ExtraTokenParams)+1)
	for k, v := range req.ExtraTokenParams {
		if _, protected := oauthparams.ProtectedTokenParams[k]; protected {
			e.logger.Debug().Str("param", k).Msg("Ignoring protected extra token param")
			continue
		}
		opts = append(opts, xoauth2.SetAuthURLParam(k, v))
	}
	opts = append(opts, xoauth2.SetAuthURLParam(oauthparams.ParamRedirectURI, req.RedirectURI))

	tok, err := e.doExchange(ctx, req.Code, req.TokenEndpointOptions, opts)
	if err != nil {
		return nil, ClassifyError(err)
	}
	at := fromOAuth2Token(tok, e.now())
	return &at, nil
}

// NeedsRefresh reports whether t is expired and refresh is enabled.
func (e *TokenExchanger) NeedsRefresh(t AccessToken) bool {
	return e.refresh && t.Expired(e.now())
}

// Refresh obtains a new access token with refreshToken.
// Errors are always *CallbackError.
func (e *TokenExchanger) Refresh(ctx context.Context, refreshToken string, headers map[string]string) (*AccessToken, error) {
	if refreshToken == "" {
		return nil, ClassifyError(errors.ErrNoRefreshToken)
	}

	ctx, cancel := e.requestContext(ctx, headers)
	defer cancel()

	e.logger.Debug().Msg("Refreshing access token that expired on receipt")
	tok, err := e.config.TokenSource(ctx, &xoauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, ClassifyError(err)
	}

	now := e.now()
	at := fromOAuth2Token(tok, now)
	if at.Expired(now) {
		return nil, newCallbackError(KindInvalidResponse, "", "refreshed token is already expired", "", nil)
	}
	return &at, nil
}

func (e *TokenExchanger) doExchange(ctx context.Context, code string, headers map[string]string, opts []xoauth2.AuthCodeOption) (*xoauth2.Token, error) {
	ctx, cancel := e.requestContext(ctx, headers)
	defer cancel()
	return e.config.Exchange(ctx, code, opts...)
}

// requestContext bounds the call with the exchange timeout and installs the
// HTTP client x/oauth2 should use.
func (e *TokenExchanger) requestContext(ctx context.Context, headers map[string]string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)

	client := e.httpClient
	if extra := e.tokenHeaders(headers); len(extra) > 0 {
		withHeaders := *client
		withHeaders.Transport = &headerTransport{base: client.Transport, headers: extra}
		client = &withHeaders
	}
	return context.WithValue(ctx, xoauth2.HTTPClient, client), cancel
}

// tokenHeaders drops headers x/oauth2 sets itself: the form Content-Type and
// the client credential Authorization.
func (e *TokenExchanger) tokenHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if _, protected := protectedTokenHeaders[http.CanonicalHeaderKey(k)]; protected {
			e.logger.Debug().Str("header", k).Msg("Ignoring protected token endpoint header")
			continue
		}
		out[k] = v
	}
	return out
}

var protectedTokenHeaders = map[string]struct{}{
	"Content-Type":  {},
	"Authorization": {},
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
