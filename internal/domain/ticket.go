package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusInProgress, TicketStatusClosed},
}

type Ticket struct {
	TicketID    uuid.UUID    `json:"ticket_id"`
	Number      string       `json:"number"`
	PartnerID   uuid.UUID    `json:"partner_id"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Priority    string       `json:"priority"`
	Status      TicketStatus `json:"status"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
}

type TicketReply struct {
	ReplyID    uuid.UUID `json:"reply_id"`
	TicketID   uuid.UUID `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	AuthorRole string    `json:"author_role"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type TicketFilter struct {
	PartnerID  *uuid.UUID
	Status     string
	AssignedTo string
	Limit      int
	Offset     int
}

// NewTicketNumber returns a time-sortable human reference for a ticket.
func NewTicketNumber(at time.Time) string {
	id, err := ksuid.NewRandomWithTime(at)
	if err != nil {
		id = ksuid.New()
	}
	return "TKT-" + id.String()
}

func ParseTicketStatus(v string) (TicketStatus, error) {
	s := TicketStatus(strings.ToLower(strings.TrimSpace(v)))
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown ticket status %q", ErrInvalidInput, v)
	}
}

func (t *Ticket) TransitionTo(to TicketStatus, at time.Time) error {
	if t.Status == to {
		return nil
	}
	allowed := false
	for _, next := range ticketTransitions[t.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: ticket %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = at
	if to == TicketStatusClosed {
		closed := at
		t.ClosedAt = &closed
	}
	return nil
}

func NormalizeTicketPriority(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low":
		return "low"
	case "high":
		return "high"
	case "urgent":
		return "urgent"
	default:
		return "normal"
	}
}

func NormalizeTicketCategory(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "billing", "commission":
		return "commission"
	case "inventory", "kits", "kit":
		return "inventory"
	case "leads", "lead":
		return "leads"
	case "account":
		return "account"
	default:
		return "other"
	}
}

func ValidateTicket(subject, description string) error {
	if n := len(strings.TrimSpace(subject)); n < 3 || n > 200 {
		return fmt.Errorf("%w: subject must be 3-200 chars", ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if len(description) > 5000 {
		return fmt.Errorf("%w: description must be <= 5000 chars", ErrInvalidInput)
	}
	return nil
}
