package strategy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

// State is a step of the authorization code flow.
type State string

const (
	StateStart            State = "start"
	StateRedirecting      State = "redirecting"
	StateAwaitingCallback State = "awaiting_callback"
	StateClassifying      State = "classifying"
	StateExchanging       State = "exchanging"
	StateRefreshing       State = "refreshing"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// SessionStore holds the pending state token of each flow.
type SessionStore interface {
	// SetIfAbsent stores value under key, failing if key already holds a live value.
	SetIfAbsent(ctx context.Context, key, value string) error
	// GetAndDelete removes key and returns its value, if any.
	GetAndDelete(ctx context.Context, key string) (string, bool, error)
}

// RedirectSink issues the browser redirect at the end of the request phase.
type RedirectSink interface {
	Redirect(url string) error
}

// OutcomeSink receives the terminal result of a callback phase. Exactly one
// method is called per callback.
type OutcomeSink interface {
	OnSuccess(Credential)
	OnFailure(*CallbackError)
}

// HostRequest is the host's view of an inbound request.
type HostRequest struct {
	// FullHost is the public scheme and authority, e.g. https://app.example.com.
	FullHost string
	// ScriptName is the path the host mounts the strategy under.
	ScriptName string
	// SessionKey identifies this flow's entry in the SessionStore.
	SessionKey string
	// Params are the query (or form) parameters.
	Params url.Values
}

// FlowController runs the request and callback phases of one strategy.
type FlowController struct {
	config    FlowConfig
	store     SessionStore
	oauth2    *xoauth2.Config
	exchanger *TokenExchanger
	logger    zerolog.Logger
}

type controllerOptions struct {
	httpClient *http.Client
	now        func() time.Time
	logger     *zerolog.Logger
}

// Option configures a FlowController.
type Option func(*controllerOptions)

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *controllerOptions) { o.httpClient = client }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *controllerOptions) { o.now = now }
}

// WithLogger sets the logger, the global zerolog logger otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *controllerOptions) { o.logger = &logger }
}

// NewFlowController validates cfg and builds a controller around store.
func NewFlowController(cfg FlowConfig, store SessionStore, opts ...Option) (*FlowController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil && !cfg.IgnoreState {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "a session store is required unless state is ignored")
	}

	var o controllerOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	cfg = cfg.withDefaults()
	return &FlowController{
		config: cfg,
		store:  store,
		oauth2: cfg.oauth2Config(),
		exchanger: NewTokenExchanger(cfg, TokenExchangerOptions{
			HTTPClient: o.httpClient,
			Now:        o.now,
			Logger:     &logger,
		}),
		logger: logger.With().Str("strategy", cfg.Name).Logger(),
	}, nil
}

// Config returns the effective configuration with defaults applied.
func (c *FlowController) Config() FlowConfig {
	return c.config.withDefaults()
}

// Exchanger returns the controller's token exchanger.
func (c *FlowController) Exchanger() *TokenExchanger {
	return c.exchanger
}

func (c *FlowController) transition(from, to State) {
	c.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("Flow transition")
}

// RequestPhase stores a fresh state token and redirects to the authorize
// endpoint. No redirect is issued when any step fails.
func (c *FlowController) RequestPhase(ctx context.Context, req HostRequest, sink RedirectSink) error {
	c.transition(StateStart, StateRedirecting)

	authURL, err := c.AuthorizeURL(ctx, req)
	if err != nil {
		c.transition(StateRedirecting, StateFailed)
		return fmt.Errorf("[FlowController RequestPhase] %w", err)
	}
	if err := sink.Redirect(authURL); err != nil {
		c.transition(StateRedirecting, StateFailed)
		return fmt.Errorf("[FlowController RequestPhase] redirect failed: %w", err)
	}

	c.transition(StateRedirecting, StateAwaitingCallback)
	return nil
}

// CallbackPhase processes the authorization server's redirect back to the
// host and reports the outcome to sink. It returns the terminal state.
func (c *FlowController) CallbackPhase(ctx context.Context, req HostRequest, sink OutcomeSink) (final State) {
	state := StateClassifying
	c.transition(StateAwaitingCallback, state)

	var reported State
	fail := func(cbErr *CallbackError) State {
		c.transition(state, StateFailed)
		c.logger.Info().Str("kind", string(cbErr.Kind)).Str("reason", cbErr.Message()).Msg("Authentication failed")
		reported = StateFailed
		sink.OnFailure(cbErr)
		return StateFailed
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Recovered from panic in callback phase")
			if reported != "" {
				// The host sink itself panicked; the outcome was already delivered.
				final = reported
				return
			}
			final = fail(newCallbackError(KindInvalidResponse, "", fmt.Sprintf("%v", r), "", errors.ErrUnexpectedFault))
		}
	}()

	classification := c.Classify(ctx, req)
	if classification.Outcome != OutcomeOK {
		return fail(classification.Err)
	}

	state = StateExchanging
	c.transition(StateClassifying, state)
	token, err := c.exchanger.ExchangeCode(ctx, ExchangeRequest{
		Code:                 classification.Code,
		RedirectURI:          c.callbackURL(req),
		TokenEndpointOptions: c.config.TokenEndpointOptions,
		ExtraTokenParams:     c.config.ExtraTokenParams,
	})
	if err != nil {
		return fail(ClassifyError(err))
	}

	if c.exchanger.NeedsRefresh(*token) {
		c.transition(state, StateRefreshing)
		state = StateRefreshing
		token, err = c.exchanger.Refresh(ctx, token.RefreshToken, c.config.TokenEndpointOptions)
		if err != nil {
			return fail(ClassifyError(err))
		}
	}

	c.transition(state, StateComplete)
	reported = StateComplete
	sink.OnSuccess(Project(*token))
	return StateComplete
}
