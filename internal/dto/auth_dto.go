package dto

// AuthUser is the caller identified by the session middleware.
type AuthUser struct {
	Id   string
	Name string
}
