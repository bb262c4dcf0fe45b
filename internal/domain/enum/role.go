package enum

// Role represents a user's role in the RBAC system. Each identity has
// exactly one role; the first identity in the system becomes admin and
// all subsequent identities default to staff.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

func (r Role) String() string {
	return string(r)
}
