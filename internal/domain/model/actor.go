package model

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStaff     Role = "staff"
	RoleProxy     Role = "proxy"
	RoleUser      Role = "user"
	RoleAnonymous Role = "anonymous"
)

// ParseRole maps unknown or empty values to RoleAnonymous.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleProxy, RoleUser:
		return Role(s)
	}
	return RoleAnonymous
}

// Actor is the authenticated caller of a use-case operation.
// Identity itself is issued elsewhere; the core only consumes it.
type Actor struct {
	ID        string  `json:"sub"`
	Role      Role    `json:"role"`
	ChannelID *string `json:"channel_id,omitempty"` // staff scoping
}

// Anonymous is the actor used when no credentials were presented.
func Anonymous() Actor { return Actor{Role: RoleAnonymous} }

func (a Actor) IsAnonymous() bool { return a.Role == RoleAnonymous || a.ID == "" }

// IDRef returns a pointer to the actor id, or nil for anonymous callers.
func (a Actor) IDRef() *string {
	if a.IsAnonymous() {
		return nil
	}
	id := a.ID
	return &id
}
