package oauth2

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749.
type TokenResponse struct {
	// AccessToken is the opaque or JWT token used to access protected resources.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token.
	// Example: "bearer"
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	// Note: Absent for non-expiring tokens
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is a non-standard absolute expiry (Unix seconds) some providers send
	// instead of expires_in.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Usage: Send to the token endpoint with grant_type=refresh_token
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope indicates the access token's granted permissions.
	// Example: "read write"
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the RFC 6749 section 5.2 token endpoint error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}
