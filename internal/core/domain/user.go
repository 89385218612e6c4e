package domain

import "strings"

// Role is the access level carried by a user and by the claims of its token.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role. Matching is case-insensitive so that CLI
// flags like "admin" are accepted.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User models an account of the administrative application.
//
// User has no reference fields, so assigning it copies it. Stores and the
// session rely on that to hand out snapshots.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Clone returns a heap copy of u.
func (u User) Clone() *User {
	c := u
	return &c
}

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	AgreeTerms bool
}

// UserInput is the payload of an admin-initiated create.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// UserUpdate carries the fields of an update. Empty fields are left unchanged;
// in particular an empty Password keeps the current credential.
type UserUpdate struct {
	Name     string
	Email    string
	Role     Role
	Password string
}

// AuthResult is what the backend returns on a successful login or
// registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
