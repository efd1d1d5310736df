package config

import (
	"time"
)

type OAuthConfig interface {
	GetStrategyName() string
	GetClientID() string
	GetClientSecret() string
	GetIssuerURL() string
	GetAuthorizeURL() string
	GetTokenURL() string
	GetScope() string
	GetAuthorizeOptions() map[string]string
	GetAuthorizeOverrideParams() []string
	GetTokenHeaders() map[string]string
	GetExtraTokenParams() map[string]string
	GetProviderIgnoresState() bool
	GetRefreshExpiredToken() bool
	GetExchangeTimeout() time.Duration
}

type OAuth struct {
	StrategyName         string            `env:"OAUTH2_STRATEGY_NAME"           envDefault:"oauth2"`
	ClientID             string            `env:"OAUTH2_CLIENT_ID"`
	ClientSecret         string            `env:"OAUTH2_CLIENT_SECRET"`
	IssuerURL            string            `env:"OAUTH2_ISSUER_URL"`
	AuthorizeURL         string            `env:"OAUTH2_AUTHORIZE_URL"`
	TokenURL             string            `env:"OAUTH2_TOKEN_URL"`
	Scope                string            `env:"OAUTH2_SCOPE"`
	AuthorizeOptions     map[string]string `env:"OAUTH2_AUTHORIZE_OPTIONS"       envSeparator:"," envKeyValSeparator:"="`
	AuthorizeOverrides   []string          `env:"OAUTH2_AUTHORIZE_OVERRIDES"     envSeparator:","`
	TokenHeaders         map[string]string `env:"OAUTH2_TOKEN_HEADERS"           envSeparator:"," envKeyValSeparator:"="`
	ExtraTokenParams     map[string]string `env:"OAUTH2_EXTRA_TOKEN_PARAMS"      envSeparator:"," envKeyValSeparator:"="`
	ProviderIgnoresState bool              `env:"OAUTH2_PROVIDER_IGNORES_STATE"  envDefault:"false"`
	RefreshExpiredToken  bool              `env:"OAUTH2_REFRESH_EXPIRED_TOKEN"   envDefault:"true"`
	ExchangeTimeout      time.Duration     `env:"OAUTH2_EXCHANGE_TIMEOUT"        envDefault:"30s"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetStrategyName() string { return o.StrategyName }
func (o OAuth) GetClientID() string     { return o.ClientID }
func (o OAuth) GetClientSecret() string { return o.ClientSecret }
func (o OAuth) GetIssuerURL() string    { return o.IssuerURL }
func (o OAuth) GetAuthorizeURL() string { return o.AuthorizeURL }
func (o OAuth) GetTokenURL() string     { return o.TokenURL }
func (o OAuth) GetScope() string        { return o.Scope }

// GetAuthorizeOptions returns the configured authorize options with the scope merged in.
func (o OAuth) GetAuthorizeOptions() map[string]string {
	opts := make(map[string]string, len(o.AuthorizeOptions)+1)
	for k, v := range o.AuthorizeOptions {
		opts[k] = v
	}
	if o.Scope != "" {
		opts["scope"] = o.Scope
	}
	return opts
}

func (o OAuth) GetAuthorizeOverrideParams() []string   { return o.AuthorizeOverrides }
func (o OAuth) GetTokenHeaders() map[string]string     { return o.TokenHeaders }
func (o OAuth) GetExtraTokenParams() map[string]string { return o.ExtraTokenParams }
func (o OAuth) GetProviderIgnoresState() bool          { return o.ProviderIgnoresState }
func (o OAuth) GetRefreshExpiredToken() bool           { return o.RefreshExpiredToken }
func (o OAuth) GetExchangeTimeout() time.Duration      { return o.ExchangeTimeout }
