package strategy

import (
	"encoding/json"
	"strconv"
	"time"

	oauthparams "github.com/jrsteele09/go-oauth2-strategy/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

// AccessToken is the token received from the token endpoint. It only lives
// for the duration of callback processing.
type AccessToken struct {
	Token        string
	RefreshToken string
	TokenType    string

	// ExpiresAt is zero for tokens that never expire.
	ExpiresAt time.Time
}

// Expires reports whether the token carries an expiry.
func (t AccessToken) Expires() bool {
	return !t.ExpiresAt.IsZero()
}

// Expired reports whether the token is at or past its expiry at now.
func (t AccessToken) Expired(now time.Time) bool {
	return t.Expires() && !now.Before(t.ExpiresAt)
}

// Credential is the provider independent record handed to the host.
// RefreshToken and ExpiresAt are only set when Expires is true.
type Credential struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Expires      bool   `json:"expires"`
}

// Project maps an access token onto a Credential. Provider specific fields
// are dropped.
func Project(t AccessToken) Credential {
	c := Credential{
		Token:   t.Token,
		Expires: t.Expires(),
	}
	if c.Expires {
		c.ExpiresAt = t.ExpiresAt.Unix()
		if t.RefreshToken != "" {
			c.RefreshToken = t.RefreshToken
		}
	}
	return c
}

// fromOAuth2Token converts the library token. expires_at is used when the
// provider sent no expires_in. An expires_in of zero or less means the token
// expired at now.
func fromOAuth2Token(tok *xoauth2.Token, now time.Time) AccessToken {
	at := AccessToken{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if !at.ExpiresAt.IsZero() {
		return at
	}
	if lifetime, ok := seconds(tok.Extra(oauthparams.ParamExpiresIn)); ok && lifetime <= 0 {
		at.ExpiresAt = now
		return at
	}
	if secs, ok := epochSeconds(tok.Extra(oauthparams.ParamExpiresAt)); ok {
		at.ExpiresAt = time.Unix(secs, 0)
	}
	return at
}

// epochSeconds accepts the shapes expires_at arrives in. Only positive values count.
func epochSeconds(v any) (int64, bool) {
	n, ok := seconds(v)
	return n, ok && n > 0
}

// seconds reads a numeric token field: JSON numbers decode to float64 or
// json.Number, form-encoded bodies give strings.
func seconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
