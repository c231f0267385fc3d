package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xraph/registrar/id"
)

// Observer receives every notification the hub sends, after it has been
// persisted. Observers are identified by Name.
//
// Deliver runs synchronously on the sending goroutine: an observer that
// blocks also blocks the mutation that triggered the notification.
type Observer interface {
	Name() string
	Deliver(ctx context.Context, n *Notification) error
}

// Hub stores per-recipient inboxes, persists them after every change and
// fans new notifications out to subscribed observers.
type Hub struct {
	mu    sync.RWMutex
	inbox map[string][]*Notification

	obsMu     sync.RWMutex
	observers []Observer

	store        Store
	logger       *slog.Logger
	now          func() time.Time
	recentWindow time.Duration
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) HubOption { return func(h *Hub) { h.logger = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) HubOption { return func(h *Hub) { h.now = now } }

// WithRecentWindow sets how old a notification may be and still count as
// recent. Defaults to 24 hours.
func WithRecentWindow(d time.Duration) HubOption { return func(h *Hub) { h.recentWindow = d } }

// NewHub creates a hub persisting through store. A nil store keeps
// notifications in memory only.
func NewHub(store Store, opts ...HubOption) *Hub {
	h := &Hub{
		inbox:        make(map[string][]*Notification),
		store:        store,
		logger:       slog.Default(),
		now:          time.Now,
		recentWindow: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load replaces the in-memory inboxes with the persisted ones. On error
// the hub keeps its current (usually empty) state.
func (h *Hub) Load(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	loaded, err := h.store.LoadNotifications(ctx)
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbox = make(map[string][]*Notification, len(loaded))
	for recipient, list := range loaded {
		for _, n := range list {
			h.inbox[recipient] = append(h.inbox[recipient], n.Clone())
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Observers
// ──────────────────────────────────────────────────

// Subscribe registers o. Registering an observer whose name is already
// subscribed has no effect.
func (h *Hub) Subscribe(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	for _, existing := range h.observers {
		if existing.Name() == o.Name() {
			return
		}
	}
	h.observers = append(h.observers, o)
}

// Unsubscribe removes the observer named name, if any.
func (h *Hub) Unsubscribe(name string) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	for i, existing := range h.observers {
		if existing.Name() == name {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

func (h *Hub) fanOut(ctx context.Context, n *Notification) {
	h.obsMu.RLock()
	observers := make([]Observer, len(h.observers))
	copy(observers, h.observers)
	h.obsMu.RUnlock()

	for _, o := range observers {
		h.deliver(ctx, o, n.Clone())
	}
}

// deliver isolates one observer so that its error or panic never reaches
// the sender or the remaining observers.
func (h *Hub) deliver(ctx context.Context, o Observer, n *Notification) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("notification observer panicked",
				slog.String("observer", o.Name()),
				slog.Any("panic", r),
			)
		}
	}()
	if err := o.Deliver(ctx, n); err != nil {
		h.logger.Warn("notification observer error",
			slog.String("observer", o.Name()),
			slog.String("notification", n.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// ──────────────────────────────────────────────────
// Sending
// ──────────────────────────────────────────────────

// Send records a new notification for recipient, persists every inbox and
// then delivers the notification to all observers.
func (h *Hub) Send(ctx context.Context, recipient, sender string, typ Type, title, message string, priority Priority) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: recipient,
		Sender:    sender,
		Type:      typ,
		Title:     title,
		Message:   message,
		Priority:  priority,
	})
}

// Post records n as given, assigning a fresh ID and timestamp. It is the
// primitive Send and the convenience senders build on.
func (h *Hub) Post(ctx context.Context, n *Notification) *Notification {
	stored := n.Clone()
	stored.ID = id.NewNotificationID()
	stored.CreatedAt = h.now()
	stored.Read = false
	if stored.Sender == "" {
		stored.Sender = SenderSystem
	}
	if stored.Priority == "" {
		stored.Priority = PriorityNormal
	}

	h.mu.Lock()
	h.inbox[stored.Recipient] = append(h.inbox[stored.Recipient], stored)
	h.persistLocked(ctx)
	out := stored.Clone()
	h.mu.Unlock()

	h.fanOut(ctx, out)
	return out.Clone()
}

// SendBulk sends the same system notification to every recipient. All
// notifications of one call share a batch ID in RelatedID. A failure for
// one recipient does not prevent delivery to the others.
func (h *Hub) SendBulk(ctx context.Context, recipients []string, typ Type, title, message string, priority Priority) []*Notification {
	batch := id.NewBatchID().String()
	sent := make([]*Notification, 0, len(recipients))
	for _, recipient := range recipients {
		if n := h.sendOne(ctx, &Notification{
			Recipient: recipient,
			Sender:    SenderSystem,
			Type:      typ,
			Title:     title,
			Message:   message,
			Priority:  priority,
			RelatedID: batch,
		}); n != nil {
			sent = append(sent, n)
		}
	}
	return sent
}

func (h *Hub) sendOne(ctx context.Context, n *Notification) (out *Notification) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("bulk notification failed",
				slog.String("recipient", n.Recipient),
				slog.Any("panic", r),
			)
			out = nil
		}
	}()
	return h.Post(ctx, n)
}

// ──────────────────────────────────────────────────
// Reading
// ──────────────────────────────────────────────────

// ListFor returns recipient's notifications, most recent first. The result
// is never nil.
func (h *Hub) ListFor(recipient string) []*Notification {
	h.mu.RLock()
	list := h.inbox[recipient]
	result := make([]*Notification, 0, len(list))
	for _, n := range list {
		result = append(result, n.Clone())
	}
	h.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// UnreadFor returns recipient's unread notifications, most recent first.
func (h *Hub) UnreadFor(recipient string) []*Notification {
	return filter(h.ListFor(recipient), func(n *Notification) bool { return !n.Read })
}

// RecentFor returns notifications created within the recent window.
func (h *Hub) RecentFor(recipient string) []*Notification {
	since := h.now().Add(-h.recentWindow)
	return filter(h.ListFor(recipient), func(n *Notification) bool { return n.CreatedAt.After(since) })
}

// ByType returns recipient's notifications of type typ.
func (h *Hub) ByType(recipient string, typ Type) []*Notification {
	return filter(h.ListFor(recipient), func(n *Notification) bool { return n.Type == typ })
}

// CountsFor returns total, unread and recent counts for recipient.
func (h *Hub) CountsFor(recipient string) Counts {
	since := h.now().Add(-h.recentWindow)
	h.mu.RLock()
	defer h.mu.RUnlock()
	var c Counts
	for _, n := range h.inbox[recipient] {
		c.Total++
		if !n.Read {
			c.Unread++
		}
		if n.CreatedAt.After(since) {
			c.Recent++
		}
	}
	return c
}

func filter(list []*Notification, keep func(*Notification) bool) []*Notification {
	result := make([]*Notification, 0, len(list))
	for _, n := range list {
		if keep(n) {
			result = append(result, n)
		}
	}
	return result
}

// ──────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────

// MarkRead flags the notification with the given ID as read. Unknown IDs
// are ignored. It reports whether a notification was found.
func (h *Hub) MarkRead(ctx context.Context, notificationID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, list := range h.inbox {
		for _, n := range list {
			if n.ID.String() == notificationID {
				n.Read = true
				h.persistLocked(ctx)
				return true
			}
		}
	}
	return false
}

// MarkAllRead flags every notification of recipient as read.
func (h *Hub) MarkAllRead(ctx context.Context, recipient string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range h.inbox[recipient] {
		n.Read = true
	}
	h.persistLocked(ctx)
}

// Delete removes one notification from recipient's inbox. It reports
// whether it was found.
func (h *Hub) Delete(ctx context.Context, recipient, notificationID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.inbox[recipient]
	for i, n := range list {
		if n.ID.String() == notificationID {
			h.inbox[recipient] = append(list[:i], list[i+1:]...)
			h.persistLocked(ctx)
			return true
		}
	}
	return false
}

// DeleteAll empties recipient's inbox.
func (h *Hub) DeleteAll(ctx context.Context, recipient string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inbox, recipient)
	h.persistLocked(ctx)
}

// PruneOlderThan removes every notification created before now-age across
// all inboxes and persists once. It returns the number removed.
func (h *Hub) PruneOlderThan(ctx context.Context, age time.Duration) int {
	cutoff := h.now().Add(-age)
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for recipient, list := range h.inbox {
		kept := list[:0]
		for _, n := range list {
			if n.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(h.inbox, recipient)
		} else {
			h.inbox[recipient] = kept
		}
	}
	h.persistLocked(ctx)
	return removed
}

// Flush persists every inbox unconditionally.
func (h *Hub) Flush(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.save(ctx)
}

// persistLocked saves every inbox, logging failures. Must hold mu.
func (h *Hub) persistLocked(ctx context.Context) {
	if err := h.save(ctx); err != nil {
		h.logger.Error("persist notifications failed", slog.String("error", err.Error()))
	}
}

func (h *Hub) save(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	snapshot := make(map[string][]*Notification, len(h.inbox))
	for recipient, list := range h.inbox {
		cp := make([]*Notification, len(list))
		for i, n := range list {
			cp[i] = n.Clone()
		}
		snapshot[recipient] = cp
	}
	if err := h.store.SaveNotifications(ctx, snapshot); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}
