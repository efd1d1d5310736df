package config

import "time"

type SessionConfig interface {
	GetRedisURL() string
	GetFlowExpiry() time.Duration
	GetLoginSessionAge() time.Duration
}

type Sessions struct {
	RedisURL        string        `env:"REDIS_URL"`
	FlowExpiry      time.Duration `env:"FLOW_EXPIRY"       envDefault:"10m"`
	LoginSessionAge time.Duration `env:"LOGIN_SESSION_AGE" envDefault:"24h"`
}

var _ SessionConfig = Sessions{}

// GetRedisURL returns the Redis URL for flow sessions. Empty selects the in-memory store.
func (s Sessions) GetRedisURL() string {
	return s.RedisURL
}

func (s Sessions) GetFlowExpiry() time.Duration {
	return s.FlowExpiry
}

func (s Sessions) GetLoginSessionAge() time.Duration {
	return s.LoginSessionAge
}
