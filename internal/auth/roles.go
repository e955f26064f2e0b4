package auth

// Role names stored on user records and carried by principals.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
