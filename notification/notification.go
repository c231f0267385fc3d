// Package notification defines the Notification entity, the per-recipient
// inbox Hub that persists and fans notifications out to live observers,
// and the store interface the hub persists through.
package notification

import (
	"time"

	"github.com/xraph/registrar/id"
)

// SenderSystem is the sender code of notifications not sent by a person.
const SenderSystem = "SYSTEM"

// PasswordPlaceholder stands in for the temporary password of an account
// created with a password already set.
const PasswordPlaceholder = "communiqué par l'administration"

// Type classifies a notification.
type Type string

const (
	TypeGradeAdded          Type = "GRADE_ADDED"
	TypeGradeModified       Type = "GRADE_MODIFIED"
	TypeAbsenceRecorded     Type = "ABSENCE_RECORDED"
	TypeModuleAssigned      Type = "MODULE_ASSIGNED"
	TypeAccountCreated      Type = "ACCOUNT_CREATED"
	TypeAccountModified     Type = "ACCOUNT_MODIFIED"
	TypeEnrollmentValidated Type = "ENROLLMENT_VALIDATED"
	TypeAnnouncement        Type = "SYSTEM_ANNOUNCEMENT"
	TypeMessage             Type = "MESSAGE"
)

// Priority orders notifications by urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Notification is one inbox entry. RelatedID optionally points at the
// entity the notification is about (a module code, a batch ID, ...).
type Notification struct {
	ID        id.NotificationID `json:"id"`
	Recipient string            `json:"recipient"`
	Sender    string            `json:"sender"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
	Read      bool              `json:"read"`
	Priority  Priority          `json:"priority"`
	RelatedID string            `json:"related_id,omitempty"`
}

// Clone returns a copy of n.
func (n *Notification) Clone() *Notification {
	c := *n
	return &c
}

// Counts is an aggregate snapshot of one recipient's inbox.
type Counts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
	Recent int `json:"recent"`
}
