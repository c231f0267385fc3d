package user

import "context"

// Store persists the user collection as a whole.
type Store interface {
	// LoadUsers returns every persisted user.
	LoadUsers(ctx context.Context) ([]*User, error)

	// SaveUsers replaces the persisted user collection with users.
	SaveUsers(ctx context.Context, users []*User) error
}
