package entity

import "fmt"

// Role is the actor's tier in the distribution hierarchy.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleDistributor    Role = "distributor"
	RoleSubDistributor Role = "sub-distributor"
	RoleOperator       Role = "operator"
)

var AllRoles = []Role{RoleAdmin, RoleManager, RoleDistributor, RoleSubDistributor, RoleOperator}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDistributor, RoleSubDistributor, RoleOperator:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Actor is the authenticated caller of a workflow operation. The role is
// trusted as supplied by the identity provider.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Holder string `json:"holder"`
}

// Recipient is the notification address for everyone holding the role.
func (r Role) Recipient() string {
	return "role:" + string(r)
}
