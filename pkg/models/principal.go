package models

// Role constants for authenticated principals. Session authentication is
// owned by the host application; the vault core only consumes the result.
const (
	RoleAdministrator = "administrator"
	RoleEngineer      = "engineer"
)

// Principal is a validated identity supplied by the session layer.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin returns true if the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdministrator
}
