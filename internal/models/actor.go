package models

type Role string

const (
	RoleAdmin Role = "admin"
	RoleBaker Role = "baker"
)

// Actor is the authenticated identity attached to every request by the
// auth middleware. The core trusts it as given.
type Actor struct {
	Role    Role   `json:"role"`
	BakerID string `json:"baker_id,omitempty"`
	Email   string `json:"email"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the baker who created the order.
// Admins are never owners; their authority comes from role checks.
func (a Actor) Owns(o *Order) bool {
	return a.Role == RoleBaker && a.BakerID != "" && a.BakerID == o.BakerID
}
