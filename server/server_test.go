package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth2-strategy/internal/config"
	"github.com/jrsteele09/go-oauth2-strategy/internal/testprovider"
	"github.com/jrsteele09/go-oauth2-strategy/server"
	"github.com/jrsteele09/go-oauth2-strategy/server/loginsession"
	"github.com/jrsteele09/go-oauth2-strategy/sessions"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/stretchr/testify/require"
	xoauth2 "golang.org/x/oauth2"
)

type hostFixture struct {
	provider *testprovider.Provider
	store    *sessions.InMemoryStore
	logins   *loginsession.InMemoryLoginSessionRepo
	host     *httptest.Server
	client   *http.Client
}

func newHostFixture(t *testing.T, opts testprovider.Options) *hostFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")

	c, err := config.New()
	require.NoError(t, err)

	provider := testprovider.New(opts).Start()
	t.Cleanup(provider.Close)

	store := sessions.NewInMemoryStore(sessions.DefaultExpiry)
	t.Cleanup(store.Stop)

	fc, err := strategy.NewFlowController(strategy.FlowConfig{
		Name:         "example",
		ClientID:     provider.Options().ClientID,
		ClientSecret: provider.Options().ClientSecret,
		Endpoint: strategy.Endpoint{
			AuthURL:   provider.AuthURL(),
			TokenURL:  provider.TokenURL(),
			AuthStyle: xoauth2.AuthStyleInParams,
		},
		AuthorizeEndpointOptions: map[string]string{"scope": "read"},
	}, store)
	require.NoError(t, err)

	logins := loginsession.NewInMemoryLoginSessionRepo()
	srv, err := server.New(c, logins, fc)
	require.NoError(t, err)

	host := httptest.NewServer(srv)
	t.Cleanup(host.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &hostFixture{
		provider: provider,
		store:    store,
		logins:   logins,
		host:     host,
		client:   &http.Client{Jar: jar},
	}
}

func readStatus(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestServer_New(t *testing.T) {
	t.Setenv("ENV", "TEST")
	c, err := config.New()
	require.NoError(t, err)

	t.Run("needs a strategy", func(t *testing.T) {
		_, err := server.New(c, loginsession.NewInMemoryLoginSessionRepo())
		require.Error(t, err)
	})

	newController := func(name string) *strategy.FlowController {
		fc, err := strategy.NewFlowController(strategy.FlowConfig{
			Name:        name,
			ClientID:    "client",
			Endpoint:    strategy.Endpoint{AuthURL: "https://p/authorize", TokenURL: "https://p/token"},
			IgnoreState: true,
		}, nil)
		require.NoError(t, err)
		return fc
	}

	t.Run("reserved name", func(t *testing.T) {
		_, err := server.New(c, loginsession.NewInMemoryLoginSessionRepo(), newController("failure"))
		require.ErrorContains(t, err, "reserved")
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := server.New(c, loginsession.NewInMemoryLoginSessionRepo(), newController("a"), newController("a"))
		require.ErrorContains(t, err, "duplicate")
	})

	t.Run("several strategies", func(t *testing.T) {
		_, err := server.New(c, loginsession.NewInMemoryLoginSessionRepo(), newController("a"), newController("b"))
		require.NoError(t, err)
	})
}

func TestServer_AuthorizationCodeFlow(t *testing.T) {
	t.Run("login creates a session without exposing tokens", func(t *testing.T) {
		f := newHostFixture(t, testprovider.Options{ExpiresIn: 3600, IssueRefreshToken: true})

		resp, err := f.client.Get(f.host.URL + "/auth/example")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, f.host.URL+"/", resp.Request.URL.String())

		status := readStatus(t, resp)
		require.Equal(t, true, status["authenticated"])
		require.Equal(t, "example", status["strategy"])
		require.Equal(t, true, status["expires"])
		require.NotContains(t, status, "token")
		require.NotContains(t, status, "refresh_token")
		require.Zero(t, f.store.Len(), "state is consumed")

		resp, err = f.client.Get(f.host.URL + "/me")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		me := readStatus(t, resp)
		require.Equal(t, "example", me["strategy"])
		require.Equal(t, true, me["has_refresh_token"])
		require.NotEmpty(t, me["session_expires_at"])

		resp, err = f.client.Get(f.host.URL + "/auth/logout")
		require.NoError(t, err)
		require.Equal(t, false, readStatus(t, resp)["authenticated"])

		resp, err = f.client.Get(f.host.URL + "/me")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("denied login lands on the failure page", func(t *testing.T) {
		f := newHostFixture(t, testprovider.Options{AuthorizeError: "access_denied"})

		resp, err := f.client.Get(f.host.URL + "/auth/example")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "/auth/failure", resp.Request.URL.Path)
		require.Equal(t, "provider_error", resp.Request.URL.Query().Get("message"))
		require.Equal(t, "example", resp.Request.URL.Query().Get("strategy"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "provider_error")
	})

	t.Run("callback without the flow cookie is csrf", func(t *testing.T) {
		f := newHostFixture(t, testprovider.Options{})

		stopRedirects := func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
		victim := &http.Client{Jar: f.client.Jar, CheckRedirect: stopRedirects}
		attacker := &http.Client{CheckRedirect: stopRedirects}

		resp, err := victim.Get(f.host.URL + "/auth/example")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, 1, f.store.Len())

		code := f.provider.IssueCode(f.host.URL+"/auth/example/callback", "read")
		resp, err = attacker.Get(f.host.URL + "/auth/example/callback?code=" + code + "&state=forged")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/auth/failure", location.Path)
		require.Equal(t, "csrf_detected", location.Query().Get("message"))
		require.Empty(t, f.provider.TokenRequests())
	})

	t.Run("form post callback", func(t *testing.T) {
		f := newHostFixture(t, testprovider.Options{})

		noRedirect := &http.Client{Jar: f.client.Jar, CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}}

		resp, err := noRedirect.Get(f.host.URL + "/auth/example")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		resp, err = noRedirect.Get(resp.Header.Get("Location"))
		require.NoError(t, err)
		resp.Body.Close()
		back, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)

		callback := f.host.URL + back.Path
		resp, err = noRedirect.Post(callback, "application/x-www-form-urlencoded", strings.NewReader(back.RawQuery))
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))
		require.Len(t, f.provider.TokenRequests(), 1)
	})
}

func TestServer_Routes(t *testing.T) {
	f := newHostFixture(t, testprovider.Options{})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(f.host.URL + "/healthz")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "ok", readStatus(t, resp)["status"])
	})

	t.Run("anonymous index", func(t *testing.T) {
		resp, err := http.Get(f.host.URL + "/")
		require.NoError(t, err)
		require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
		require.Equal(t, false, readStatus(t, resp)["authenticated"])
	})

	t.Run("me requires a login session", func(t *testing.T) {
		resp, err := http.Get(f.host.URL + "/me")
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "unauthorized", readStatus(t, resp)["error"])
	})

	t.Run("stale session cookie is ignored", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.host.URL+"/", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "loggedInSessionId", Value: "gone"})
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, false, readStatus(t, resp)["authenticated"])
	})

	t.Run("unknown strategy", func(t *testing.T) {
		resp, err := http.Get(f.host.URL + "/auth/other")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
