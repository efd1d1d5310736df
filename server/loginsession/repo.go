package loginsession

import (
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/strategy"
)

type Session struct {
	// Strategy that authenticated the session
	Strategy string

	// Credential handed over at the end of the callback phase
	Credential strategy.Credential

	// Session management
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
}
