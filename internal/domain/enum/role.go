package enum

// Role is the access role carried by a user account and its tokens
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleCustomer   Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role may operate the till and workshop.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTechnician
}
