package strategy

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	oauthparams "github.com/jrsteele09/go-oauth2-strategy/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

// CallbackURL joins the host's public base URL, the mount path and the callback path.
func CallbackURL(fullHost, scriptName, callbackPath string) string {
	return strings.TrimSuffix(fullHost, "/") + strings.TrimSuffix(scriptName, "/") + callbackPath
}

// callbackURL is the redirect_uri for req.
func (c *FlowController) callbackURL(req HostRequest) string {
	return CallbackURL(req.FullHost, req.ScriptName, c.config.CallbackPath)
}

// authorizeParams merges configured options and allowed per-request overrides.
// Protocol parameters are never taken from either.
func (c *FlowController) authorizeParams(req HostRequest) map[string]string {
	params := make(map[string]string, len(c.config.AuthorizeEndpointOptions))
	for k, v := range c.config.AuthorizeEndpointOptions {
		if _, protected := oauthparams.ProtectedAuthorizeParams[k]; protected {
			continue
		}
		params[k] = v
	}
	for _, k := range c.config.AuthorizeOverrideParams {
		if _, protected := oauthparams.ProtectedAuthorizeParams[k]; protected {
			continue
		}
		if v := req.Params.Get(k); v != "" {
			params[k] = v
		}
	}
	return params
}

// AuthorizeURL generates a state token, stores it under req.SessionKey and
// returns the authorize endpoint URL. Nothing is returned if the store write fails.
func (c *FlowController) AuthorizeURL(ctx context.Context, req HostRequest) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	if !c.config.IgnoreState {
		if req.SessionKey == "" {
			return "", errors.ErrMissingFlowKey
		}
		if err := c.store.SetIfAbsent(ctx, req.SessionKey, state); err != nil {
			return "", errors.Wrapf(err, "failed to store state for %s", c.config.Name)
		}
	}

	params := c.authorizeParams(req)
	opts := make([]xoauth2.AuthCodeOption, 0, len(params)+1)
	for k, v := range params {
		opts = append(opts, xoauth2.SetAuthURLParam(k, v))
	}
	opts = append(opts, xoauth2.SetAuthURLParam(oauthparams.ParamRedirectURI, c.callbackURL(req)))

	return c.oauth2.AuthCodeURL(state, opts...), nil
}
