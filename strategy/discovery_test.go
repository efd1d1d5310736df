package strategy_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-oauth2-strategy/internal/testprovider"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEndpoint(t *testing.T) {
	provider := testprovider.New(testprovider.Options{}).Start()
	defer provider.Close()

	t.Run("reads the metadata", func(t *testing.T) {
		ep, err := strategy.DiscoverEndpoint(context.Background(), provider.URL())
		require.NoError(t, err)
		require.Equal(t, provider.AuthURL(), ep.AuthURL)
		require.Equal(t, provider.TokenURL(), ep.TokenURL)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		_, err := strategy.DiscoverEndpoint(context.Background(), provider.URL()+"/other")
		require.Error(t, err)
	})
}
