package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PartnerStatus string

const (
	PartnerStatusActive    PartnerStatus = "active"
	PartnerStatusSuspended PartnerStatus = "suspended"
)

type Partner struct {
	PartnerID uuid.UUID     `json:"partner_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Region    string        `json:"region,omitempty"`
	Status    PartnerStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (p Partner) IsActive() bool { return p.Status == PartnerStatusActive }

type PartnerFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}

func ParsePartnerStatus(v string) (PartnerStatus, error) {
	switch PartnerStatus(strings.ToLower(strings.TrimSpace(v))) {
	case PartnerStatusActive:
		return PartnerStatusActive, nil
	case PartnerStatusSuspended:
		return PartnerStatusSuspended, nil
	default:
		return "", fmt.Errorf("%w: unknown partner status %q", ErrInvalidInput, v)
	}
}

func ValidatePartnerName(v string) error {
	n := len(strings.TrimSpace(v))
	if n < 2 || n > 120 {
		return fmt.Errorf("%w: name must be 2-120 chars", ErrInvalidInput)
	}
	return nil
}

func ValidateEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}

func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
