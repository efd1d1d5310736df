package server

import "github.com/jrsteele09/go-oauth2-strategy/strategy"

// Route path constants
const (
	RouteIndex   = "/"
	RouteHealth  = "/healthz"
	RouteMe      = "/me"
	RouteFailure = strategy.DefaultPathPrefix + "/failure"
	RouteLogout  = strategy.DefaultPathPrefix + "/logout"
)

// reservedStrategyNames would collide with the fixed routes under /auth.
var reservedStrategyNames = map[string]struct{}{
	"failure": {},
	"logout":  {},
}
