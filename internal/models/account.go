package models

// Role identifies which permission table applies to an actor. The role is
// derived from the authenticated account, never from request payloads.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleArtisan  Role = "artisan"
	RoleAdmin    Role = "admin"
)

// Actor is whoever is requesting an order mutation.
type Actor struct {
	ID   string
	Role Role
}

// UnknownAccount carries unvalidated registration/login input.
type UnknownAccount struct {
	Login    *string `json:"login"`
	Password *string `json:"password"`
	Role     *string `json:"role,omitempty"`
}

type Account struct {
	ID    string
	Login string
	Hash  string
	Role  Role
}

func (a Account) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role}
}
