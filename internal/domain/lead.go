package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type Lead struct {
	LeadID          uuid.UUID  `json:"lead_id"`
	PartnerID       uuid.UUID  `json:"partner_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Source          string     `json:"source,omitempty"`
	Status          LeadStatus `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	ConvertedSaleID *uuid.UUID `json:"converted_sale_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type LeadFilter struct {
	PartnerID *uuid.UUID
	Status    string
	Limit     int
	Offset    int
}

func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}

var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:       {LeadStatusContacted, LeadStatusConverted, LeadStatusLost},
	LeadStatusContacted: {LeadStatusQualified, LeadStatusConverted, LeadStatusLost},
	LeadStatusQualified: {LeadStatusConverted, LeadStatusLost},
}

func ParseLeadStatus(v string) (LeadStatus, error) {
	s := LeadStatus(strings.ToLower(strings.TrimSpace(v)))
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown lead status %q", ErrInvalidInput, v)
	}
}

// CanTransitionLead reports whether a lead may move from one status to another.
func CanTransitionLead(from, to LeadStatus) bool {
	for _, next := range leadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (l *Lead) TransitionTo(to LeadStatus, at time.Time) error {
	if l.Status == to {
		return nil
	}
	if !CanTransitionLead(l.Status, to) {
		return fmt.Errorf("%w: lead %s -> %s", ErrInvalidTransition, l.Status, to)
	}
	l.Status = to
	l.UpdatedAt = at
	return nil
}

func ValidateLeadName(v string) error {
	n := len(strings.TrimSpace(v))
	if n < 2 || n > 120 {
		return fmt.Errorf("%w: lead name must be 2-120 chars", ErrInvalidInput)
	}
	return nil
}
