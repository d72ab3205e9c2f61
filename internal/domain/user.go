package domain

import "time"

// UserRole enumerates system roles.
type UserRole string

const (
	UserRoleRequester  UserRole = "REQUESTER"
	UserRoleTechnician UserRole = "TECHNICIAN"
	UserRoleSupervisor UserRole = "SUPERVISOR"
	UserRoleAdmin      UserRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleRequester, UserRoleTechnician, UserRoleSupervisor, UserRoleAdmin:
		return true
	}
	return false
}

// User models anyone who interacts with the system: machine operators
// opening tickets, technicians executing work, supervisors triaging.
type User struct {
	ID           string
	Name         string
	Login        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the user's name, falling back to login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
