package domain

const (
	RoleRenter = "renter"
	RoleHost   = "host"
	RoleAdmin  = "admin"
)

// SignupRoles lists the roles an account can take on by itself, in display order.
func SignupRoles() []string {
	return []string{RoleRenter, RoleHost}
}

// SignupRole reports whether name is one of SignupRoles.
func SignupRole(name string) bool {
	return name == RoleRenter || name == RoleHost
}

// ValidRole reports whether name is a role that can be granted to a user.
func ValidRole(name string) bool {
	switch name {
	case RoleRenter, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// HasRole reports whether role is present in roles.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
