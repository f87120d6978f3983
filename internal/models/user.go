package models

// UserRole represents the roles issued by the identity provider.
type UserRole string

const (
	RoleAdmin   UserRole = "ROLE_ADMIN"
	RoleTeacher UserRole = "ROLE_TEACHER"
	RoleStudent UserRole = "ROLE_STUDENT"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Principal is the caller identity read from the bearer token. The gateway does not verify the
// token; the backend remains the authority.
type Principal struct {
	UserID  string   `json:"userId"`
	Subject string   `json:"sub"`
	Role    UserRole `json:"role"`
	Token   string   `json:"-"`
}

// Is reports whether the principal carries one of roles.
func (p Principal) Is(roles ...UserRole) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
