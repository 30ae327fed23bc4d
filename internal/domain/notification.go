package domain

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	NotificationID  uuid.UUID         `json:"notification_id"`
	RecipientID     string            `json:"recipient_id"`
	Type            string            `json:"type"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	SourceEventType string            `json:"source_event_type,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ReadAt          *time.Time        `json:"read_at,omitempty"`
}

func (n Notification) IsUnread() bool { return n.ReadAt == nil }

func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt == nil {
		t := at.UTC()
		n.ReadAt = &t
	}
}

// AdminRecipient addresses notifications to every portal administrator.
const AdminRecipient = "role:admin"

func PartnerRecipient(partnerID string) string { return "partner:" + partnerID }
