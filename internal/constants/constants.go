package constants

const (
	MinPairs         = 3
	MaxPairs         = 12
	DefaultPairs     = 6
	LeaderboardLimit = 10
	DefaultPlayer    = "Guest"
)

const (
	SessionCookieName = "session_id"
)

const (
	RouteHome     = "/"
	RouteStart    = "/start"
	RoutePlay     = "/play"
	RouteFlip     = "/flip"
	RouteContinue = "/continue"
	RouteRestart  = "/restart"
	RouteProfile  = "/profile"
)

const (
	ErrorCodeInvalidPairs = "invalid_pairs"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)
