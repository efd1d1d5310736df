package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The only response type this strategy requests.
	// Example: /oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri and client authentication.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Used by the strategy only when the freshly exchanged token is already expired.
	RefreshTokenGrant GrantType = "refresh_token"
)

// Parameter names used on the authorize redirect, the callback and the token request.
const (
	ParamResponseType     = "response_type"
	ParamClientID         = "client_id"
	ParamClientSecret     = "client_secret"
	ParamRedirectURI      = "redirect_uri"
	ParamScope            = "scope"
	ParamState            = "state"
	ParamCode             = "code"
	ParamGrantType        = "grant_type"
	ParamRefreshToken     = "refresh_token"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorReason      = "error_reason"
	ParamErrorURI         = "error_uri"
	ParamExpiresIn        = "expires_in"
	ParamExpiresAt        = "expires_at"
)

// ProtectedAuthorizeParams may never be overridden by configured or per-request
// authorize options.
var ProtectedAuthorizeParams = map[string]struct{}{
	ParamResponseType: {},
	ParamClientID:     {},
	ParamRedirectURI:  {},
	ParamState:        {},
}

// ProtectedTokenParams may never be overridden by extra token request parameters.
var ProtectedTokenParams = map[string]struct{}{
	ParamCode:        {},
	ParamRedirectURI: {},
	ParamGrantType:   {},
}
