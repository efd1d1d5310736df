package strategy

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DiscoverEndpoint reads the authorize and token URLs from the issuer's
// OpenID Connect discovery document.
func DiscoverEndpoint(ctx context.Context, issuerURL string) (Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to discover OIDC provider %s: %w", issuerURL, err)
	}
	ep := provider.Endpoint()
	return Endpoint{
		AuthURL:   ep.AuthURL,
		TokenURL:  ep.TokenURL,
		AuthStyle: ep.AuthStyle,
	}, nil
}
