package strategy_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	"github.com/jrsteele09/go-oauth2-strategy/internal/testprovider"
	"github.com/jrsteele09/go-oauth2-strategy/sessions"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/stretchr/testify/require"
)

func TestFlowController_RequestPhase(t *testing.T) {
	ctx := context.Background()

	t.Run("redirects with exactly one state and the configured scope", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, nil)
		sink := &recordingRedirect{}

		require.NoError(t, f.controller.RequestPhase(ctx, hostRequest(nil), sink))

		u, err := url.Parse(sink.url)
		require.NoError(t, err)
		require.Equal(t, f.provider.AuthURL(), u.Scheme+"://"+u.Host+u.Path)

		q := u.Query()
		require.Len(t, q["state"], 1)
		require.Equal(t, []string{"read"}, q["scope"])
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "test-client", q.Get("client_id"))
		require.Equal(t, testHost+"/auth/example/callback", q.Get("redirect_uri"))

		stored, found, err := f.store.GetAndDelete(ctx, testSessionKey)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, q.Get("state"), stored)
	})

	t.Run("fresh state per flow", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, nil)

		first := &recordingRedirect{}
		require.NoError(t, f.controller.RequestPhase(ctx, hostRequest(nil), first))
		second := &recordingRedirect{}
		req := hostRequest(nil)
		req.SessionKey = "oauth2:flow-2"
		require.NoError(t, f.controller.RequestPhase(ctx, req, second))

		u1, _ := url.Parse(first.url)
		u2, _ := url.Parse(second.url)
		require.NotEqual(t, u1.Query().Get("state"), u2.Query().Get("state"))
	})

	t.Run("allowed overrides replace options, protected params do not", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, func(c *strategy.FlowConfig) {
			c.AuthorizeEndpointOptions = map[string]string{
				"scope":     "read",
				"prompt":    "consent",
				"client_id": "not-the-client",
			}
			c.AuthorizeOverrideParams = []string{"prompt", "state", "redirect_uri"}
		})
		sink := &recordingRedirect{}

		params := url.Values{
			"prompt":       {"login"},
			"state":        {"attacker"},
			"redirect_uri": {"https://evil.example.com"},
			"login_hint":   {"not-allowed"},
		}
		require.NoError(t, f.controller.RequestPhase(ctx, hostRequest(params), sink))

		u, err := url.Parse(sink.url)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "login", q.Get("prompt"))
		require.Equal(t, "test-client", q.Get("client_id"))
		require.NotEqual(t, "attacker", q.Get("state"))
		require.Equal(t, testHost+"/auth/example/callback", q.Get("redirect_uri"))
		require.Empty(t, q.Get("login_hint"))
	})

	t.Run("custom callback path and script name", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, func(c *strategy.FlowConfig) {
			c.CallbackPath = "/oauth/return"
		})
		sink := &recordingRedirect{}
		req := hostRequest(nil)
		req.ScriptName = "/app/"

		require.NoError(t, f.controller.RequestPhase(ctx, req, sink))
		u, err := url.Parse(sink.url)
		require.NoError(t, err)
		require.Equal(t, testHost+"/app/oauth/return", u.Query().Get("redirect_uri"))
	})

	t.Run("no redirect when the store fails", func(t *testing.T) {
		provider := testprovider.New(testprovider.Options{}).Start()
		defer provider.Close()

		fc, err := strategy.NewFlowController(flowConfig(provider), failingStore{err: errors.New("store down")})
		require.NoError(t, err)

		sink := &recordingRedirect{}
		err = fc.RequestPhase(ctx, hostRequest(nil), sink)
		require.Error(t, err)
		require.Contains(t, err.Error(), "store down")
		require.Empty(t, sink.url)
	})

	t.Run("pending flow is not overwritten", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, nil)

		require.NoError(t, f.controller.RequestPhase(ctx, hostRequest(nil), &recordingRedirect{}))
		err := f.controller.RequestPhase(ctx, hostRequest(nil), &recordingRedirect{})
		require.ErrorIs(t, err, sessions.ErrStateExists)
	})

	t.Run("session key is required", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, nil)
		req := hostRequest(nil)
		req.SessionKey = ""

		err := f.controller.RequestPhase(ctx, req, &recordingRedirect{})
		require.ErrorIs(t, err, errors.ErrMissingFlowKey)
	})

	t.Run("ignore state sends state without storing it", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, func(c *strategy.FlowConfig) {
			c.IgnoreState = true
		})
		sink := &recordingRedirect{}

		require.NoError(t, f.controller.RequestPhase(ctx, hostRequest(nil), sink))
		u, err := url.Parse(sink.url)
		require.NoError(t, err)
		require.NotEmpty(t, u.Query().Get("state"))
		require.Zero(t, f.store.Len())
	})

	t.Run("sink error is reported", func(t *testing.T) {
		f := newFixture(t, testprovider.Options{}, nil)
		err := f.controller.RequestPhase(ctx, hostRequest(nil), &recordingRedirect{err: errors.New("headers already sent")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "headers already sent")
	})
}
