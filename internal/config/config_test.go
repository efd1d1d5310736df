package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "info", c.GetLogLevel())
	require.Equal(t, "oauth2", c.GetStrategyName())
	require.True(t, c.GetRefreshExpiredToken())
	require.False(t, c.GetProviderIgnoresState())
	require.Equal(t, 30*time.Second, c.GetExchangeTimeout())
	require.Equal(t, 10*time.Minute, c.GetFlowExpiry())
	require.Equal(t, 24*time.Hour, c.GetLoginSessionAge())
	require.Empty(t, c.GetRedisURL())
	require.Empty(t, c.GetAuthorizeOptions())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("BASE_URL", "https://app.example.com/")
	t.Setenv("OAUTH2_STRATEGY_NAME", "github")
	t.Setenv("OAUTH2_CLIENT_ID", "client")
	t.Setenv("OAUTH2_SCOPE", "read:user")
	t.Setenv("OAUTH2_AUTHORIZE_OPTIONS", "prompt=consent,access_type=offline")
	t.Setenv("OAUTH2_AUTHORIZE_OVERRIDES", "prompt,login_hint")
	t.Setenv("OAUTH2_TOKEN_HEADERS", "Accept=application/json")
	t.Setenv("OAUTH2_EXTRA_TOKEN_PARAMS", "audience=api")
	t.Setenv("OAUTH2_PROVIDER_IGNORES_STATE", "true")
	t.Setenv("OAUTH2_REFRESH_EXPIRED_TOKEN", "false")
	t.Setenv("OAUTH2_EXCHANGE_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://app.example.com", c.GetBaseURL())
	require.Equal(t, "github", c.GetStrategyName())
	require.Equal(t, map[string]string{
		"prompt":      "consent",
		"access_type": "offline",
		"scope":       "read:user",
	}, c.GetAuthorizeOptions())
	require.Equal(t, []string{"prompt", "login_hint"}, c.GetAuthorizeOverrideParams())
	require.Equal(t, map[string]string{"Accept": "application/json"}, c.GetTokenHeaders())
	require.Equal(t, map[string]string{"audience": "api"}, c.GetExtraTokenParams())
	require.True(t, c.GetProviderIgnoresState())
	require.False(t, c.GetRefreshExpiredToken())
	require.Equal(t, 5*time.Second, c.GetExchangeTimeout())
	require.Equal(t, "redis://localhost:6379/0", c.GetRedisURL())
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("OAUTH2_EXCHANGE_TIMEOUT", "soon")
	_, err := config.New()
	require.Error(t, err)
}
