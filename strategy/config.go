package strategy

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	xoauth2 "golang.org/x/oauth2"
)

const (
	// DefaultName is the strategy name used in callback paths when none is configured.
	DefaultName = "oauth2"

	// DefaultPathPrefix is the mount prefix for the request and callback routes.
	DefaultPathPrefix = "/auth"

	// DefaultExchangeTimeout bounds every call to the token endpoint.
	DefaultExchangeTimeout = 30 * time.Second
)

// Endpoint holds the authorization server URLs.
type Endpoint struct {
	AuthURL  string
	TokenURL string

	// AuthStyle selects how client credentials are sent to the token endpoint.
	// Zero value auto-detects.
	AuthStyle xoauth2.AuthStyle
}

// FlowConfig is the configuration of one authorization code strategy.
// It is copied by NewFlowController and never mutated afterwards.
type FlowConfig struct {
	// Name identifies the strategy in routes, e.g. /auth/{Name}/callback.
	Name string

	ClientID     string
	ClientSecret string
	Endpoint     Endpoint

	// AuthorizeEndpointOptions are added to the authorize URL (scope, prompt, ...).
	AuthorizeEndpointOptions map[string]string

	// AuthorizeOverrideParams lists request parameters that may override
	// AuthorizeEndpointOptions for a single request phase.
	AuthorizeOverrideParams []string

	// TokenEndpointOptions are sent as HTTP headers on token requests.
	TokenEndpointOptions map[string]string

	// ExtraTokenParams are added to the token request form body.
	// code, redirect_uri and grant_type can not be overridden.
	ExtraTokenParams map[string]string

	// IgnoreState disables CSRF state verification. Only for providers that
	// drop the state parameter.
	IgnoreState bool

	// RefreshExpiredToken refreshes a token that is already expired when it is
	// received. Nil means true.
	RefreshExpiredToken *bool

	// ExchangeTimeout bounds each token endpoint call. Zero means DefaultExchangeTimeout.
	ExchangeTimeout time.Duration

	// PathPrefix is the mount prefix, DefaultPathPrefix when empty.
	PathPrefix string

	// CallbackPath overrides the default <PathPrefix>/<Name>/callback.
	CallbackPath string
}

// Validate checks the required fields.
func (c FlowConfig) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.Endpoint.AuthURL == "" {
		missing = append(missing, "authorize url")
	}
	if c.Endpoint.TokenURL == "" {
		missing = append(missing, "token url")
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "missing %s", strings.Join(missing, ", "))
	}
	if c.ExchangeTimeout < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "negative exchange timeout %s", c.ExchangeTimeout)
	}
	return nil
}

// withDefaults returns a copy of c with defaults applied and maps cloned.
func (c FlowConfig) withDefaults() FlowConfig {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.PathPrefix == "" {
		c.PathPrefix = DefaultPathPrefix
	}
	if c.CallbackPath == "" {
		c.CallbackPath = c.PathPrefix + "/" + c.Name + "/callback"
	}
	if c.ExchangeTimeout == 0 {
		c.ExchangeTimeout = DefaultExchangeTimeout
	}
	if c.RefreshExpiredToken == nil {
		refresh := true
		c.RefreshExpiredToken = &refresh
	}
	c.AuthorizeEndpointOptions = cloneMap(c.AuthorizeEndpointOptions)
	c.TokenEndpointOptions = cloneMap(c.TokenEndpointOptions)
	c.ExtraTokenParams = cloneMap(c.ExtraTokenParams)
	c.AuthorizeOverrideParams = append([]string(nil), c.AuthorizeOverrideParams...)
	return c
}

// RequestPath is the path that starts the request phase.
func (c FlowConfig) RequestPath() string {
	prefix := c.PathPrefix
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	name := c.Name
	if name == "" {
		name = DefaultName
	}
	return prefix + "/" + name
}

func (c FlowConfig) oauth2Config() *xoauth2.Config {
	return &xoauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: xoauth2.Endpoint{
			AuthURL:   c.Endpoint.AuthURL,
			TokenURL:  c.Endpoint.TokenURL,
			AuthStyle: c.Endpoint.AuthStyle,
		},
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
