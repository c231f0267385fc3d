package notification

import "context"

// Store persists every inbox as a whole, keyed by recipient code.
type Store interface {
	// LoadNotifications returns every persisted inbox.
	LoadNotifications(ctx context.Context) (map[string][]*Notification, error)

	// SaveNotifications replaces all persisted inboxes.
	SaveNotifications(ctx context.Context, inboxes map[string][]*Notification) error
}
