package strategy_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-oauth2-strategy/internal/testprovider"
	"github.com/jrsteele09/go-oauth2-strategy/sessions"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/stretchr/testify/require"
	xoauth2 "golang.org/x/oauth2"
)

const (
	testHost       = "https://app.example.com"
	testSessionKey = "oauth2:flow-1"
)

type fixture struct {
	provider   *testprovider.Provider
	store      *sessions.InMemoryStore
	controller *strategy.FlowController
}

func newFixture(t *testing.T, opts testprovider.Options, mutate func(*strategy.FlowConfig)) *fixture {
	t.Helper()

	provider := testprovider.New(opts).Start()
	t.Cleanup(provider.Close)

	store := sessions.NewInMemoryStore(sessions.DefaultExpiry)
	t.Cleanup(store.Stop)

	cfg := flowConfig(provider)
	if mutate != nil {
		mutate(&cfg)
	}

	fc, err := strategy.NewFlowController(cfg, store)
	require.NoError(t, err)

	return &fixture{provider: provider, store: store, controller: fc}
}

func flowConfig(provider *testprovider.Provider) strategy.FlowConfig {
	return strategy.FlowConfig{
		Name:         "example",
		ClientID:     provider.Options().ClientID,
		ClientSecret: provider.Options().ClientSecret,
		Endpoint: strategy.Endpoint{
			AuthURL:   provider.AuthURL(),
			TokenURL:  provider.TokenURL(),
			AuthStyle: xoauth2.AuthStyleInParams,
		},
		AuthorizeEndpointOptions: map[string]string{"scope": "read"},
	}
}

func hostRequest(params url.Values) strategy.HostRequest {
	if params == nil {
		params = url.Values{}
	}
	return strategy.HostRequest{
		FullHost:   testHost,
		SessionKey: testSessionKey,
		Params:     params,
	}
}

// authorize runs the request phase and follows the provider's redirect,
// returning the callback parameters it carries.
func (f *fixture) authorize(t *testing.T) url.Values {
	t.Helper()

	sink := &recordingRedirect{}
	require.NoError(t, f.controller.RequestPhase(context.Background(), hostRequest(nil), sink))
	require.NotEmpty(t, sink.url)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(sink.url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return location.Query()
}

type recordingRedirect struct {
	url string
	err error
}

func (r *recordingRedirect) Redirect(u string) error {
	if r.err != nil {
		return r.err
	}
	r.url = u
	return nil
}

type recordingOutcome struct {
	mu        sync.Mutex
	successes []strategy.Credential
	failures  []*strategy.CallbackError
}

func (r *recordingOutcome) OnSuccess(c strategy.Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, c)
}

func (r *recordingOutcome) OnFailure(err *strategy.CallbackError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *recordingOutcome) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes) + len(r.failures)
}

// failingStore rejects every write and read.
type failingStore struct {
	err error
}

func (s failingStore) SetIfAbsent(context.Context, string, string) error {
	return s.err
}

func (s failingStore) GetAndDelete(context.Context, string) (string, bool, error) {
	return "", false, s.err
}
