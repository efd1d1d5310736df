package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-oauth2-strategy/internal/config"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/rs/zerolog/log"
)

// buildFlowConfig maps the environment onto a FlowConfig. Explicit endpoint
// URLs win over those discovered from OAUTH2_ISSUER_URL.
func buildFlowConfig(ctx context.Context, c config.OAuthConfig) (strategy.FlowConfig, error) {
	refresh := c.GetRefreshExpiredToken()
	fc := strategy.FlowConfig{
		Name:                     c.GetStrategyName(),
		ClientID:                 c.GetClientID(),
		ClientSecret:             c.GetClientSecret(),
		AuthorizeEndpointOptions: c.GetAuthorizeOptions(),
		AuthorizeOverrideParams:  c.GetAuthorizeOverrideParams(),
		TokenEndpointOptions:     c.GetTokenHeaders(),
		ExtraTokenParams:         c.GetExtraTokenParams(),
		IgnoreState:              c.GetProviderIgnoresState(),
		RefreshExpiredToken:      &refresh,
		ExchangeTimeout:          c.GetExchangeTimeout(),
		Endpoint: strategy.Endpoint{
			AuthURL:  c.GetAuthorizeURL(),
			TokenURL: c.GetTokenURL(),
		},
	}

	if issuer := c.GetIssuerURL(); issuer != "" && (fc.Endpoint.AuthURL == "" || fc.Endpoint.TokenURL == "") {
		discovered, err := strategy.DiscoverEndpoint(ctx, issuer)
		if err != nil {
			return strategy.FlowConfig{}, fmt.Errorf("[buildFlowConfig] %w", err)
		}
		if fc.Endpoint.AuthURL == "" {
			fc.Endpoint.AuthURL = discovered.AuthURL
		}
		if fc.Endpoint.TokenURL == "" {
			fc.Endpoint.TokenURL = discovered.TokenURL
		}
		log.Info().Str("issuer", issuer).Msg("Discovered provider endpoints")
	}

	if err := fc.Validate(); err != nil {
		return strategy.FlowConfig{}, err
	}
	return fc, nil
}
