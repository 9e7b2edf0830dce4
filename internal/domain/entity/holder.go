package entity

// MainDistribution is the NOC-side holder every device is registered to.
const MainDistribution = "Main Distribution"

type Location string

const (
	LocationMainDistribution Location = "main-distribution"
	LocationSubDistributor   Location = "sub-distributor"
	LocationOperator         Location = "operator"
	LocationInTransit        Location = "in-transit"
)

func (l Location) Valid() bool {
	switch l {
	case LocationMainDistribution, LocationSubDistributor, LocationOperator, LocationInTransit:
		return true
	}
	return false
}

// Holder is a named custodian of devices. Parent links an operator to the
// sub-distributor it works under.
type Holder struct {
	Name   string   `json:"name" yaml:"name"`
	Tier   Location `json:"tier" yaml:"tier"`
	Parent string   `json:"parent,omitempty" yaml:"parent,omitempty"`
}

type User struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Email        string `json:"email" yaml:"email"`
	Role         Role   `json:"role" yaml:"role"`
	Holder       string `json:"holder" yaml:"holder"`
	PasswordHash string `json:"-" yaml:"passwordHash"`
	Active       bool   `json:"active" yaml:"active"`
}

func (u *User) Actor() *Actor {
	return &Actor{ID: u.ID, Name: u.Name, Role: u.Role, Holder: u.Holder}
}
