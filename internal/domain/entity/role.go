// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role a user can have in the LMS.
type Role string

const (
	// RoleStudent is assigned to every self-registered account.
	RoleStudent Role = "student"
	// RoleInstructor can author courses.
	RoleInstructor Role = "instructor"
	// RoleAdmin manages the platform.
	RoleAdmin Role = "admin"
)

// DefaultRole is the role given at registration.
const DefaultRole = RoleStudent

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleFromString converts a stored or claimed role, falling back to DefaultRole for unknown values.
func RoleFromString(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return DefaultRole
	}

	return role
}
