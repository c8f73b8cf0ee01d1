package constants

// Session / context keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeySession = "session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Notifications returned per feed fetch
const (
	NotificationFetchLimit = 50
)
