package sessions

import (
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
)

// DefaultExpiry is how long a pending flow may wait for its callback.
const DefaultExpiry = 10 * time.Minute

// ErrStateExists is returned by SetIfAbsent when the key holds a live entry.
var ErrStateExists = errors.ErrSessionExists

var (
	_ strategy.SessionStore = (*InMemoryStore)(nil)
	_ strategy.SessionStore = (*RedisStore)(nil)
)

// entry is one pending flow's state token.
type entry struct {
	Value     string
	CreatedAt time.Time
}
