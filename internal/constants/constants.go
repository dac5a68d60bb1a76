package constants

// Context and session keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
	SessionKeyToken    = "token"
	SessionCookieName  = "lostfound_session"
)

// Flash categories used by the form surface
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Users
const (
	DefaultRole       = "student"
	MaxUsernameLength = 80
	MaxEmailLength    = 120
)
