package session

import (
	"fmt"

	"github.com/insurdash/dashboard/pkg/notifyapi"
)

// Identity is the signed-in user that a session is scoped to.
type Identity struct {
	UserID string
	Role   string
	Token  string
}

// Validate reports ErrInvalidIdentity when the user id or role is missing.
func (i Identity) Validate() error {
	if i.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidIdentity)
	}
	if i.Role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidIdentity)
	}
	return nil
}

func (i Identity) api() notifyapi.Identity {
	return notifyapi.Identity{UserID: i.UserID, Role: i.Role, Token: i.Token}
}
