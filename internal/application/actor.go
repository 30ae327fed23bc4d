package application

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

func normalizeRole(role string) string { return strings.ToLower(strings.TrimSpace(role)) }

func requireActor(actor Actor) error {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.ErrUnauthorized
	}
	switch normalizeRole(actor.Role) {
	case RoleAdmin, RoleAgent, RolePartner, RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w: unknown role", domain.ErrForbidden)
	}
}

func isAdmin(actor Actor) bool {
	role := normalizeRole(actor.Role)
	return role == RoleAdmin || role == RoleSystem
}

func isStaff(actor Actor) bool {
	return isAdmin(actor) || normalizeRole(actor.Role) == RoleAgent
}

func requireAdmin(actor Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !isAdmin(actor) {
		return domain.ErrForbidden
	}
	return nil
}

func requireStaff(actor Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !isStaff(actor) {
		return domain.ErrForbidden
	}
	return nil
}

// actorPartnerID returns the partner a partner-role actor acts for.
func actorPartnerID(actor Actor) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(actor.PartnerID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: partner actor without partner id", domain.ErrForbidden)
	}
	return id, nil
}

// authorizePartner checks that actor may touch data owned by partnerID.
func authorizePartner(actor Actor, partnerID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if isStaff(actor) {
		return nil
	}
	own, err := actorPartnerID(actor)
	if err != nil {
		return err
	}
	if own != partnerID {
		return domain.ErrForbidden
	}
	return nil
}

// resolvePartnerID picks the target partner for a request: partner actors always act
// for themselves, staff must name one.
func resolvePartnerID(actor Actor, requested string) (uuid.UUID, error) {
	if !isStaff(actor) {
		own, err := actorPartnerID(actor)
		if err != nil {
			return uuid.Nil, err
		}
		if strings.TrimSpace(requested) != "" && strings.TrimSpace(requested) != own.String() {
			return uuid.Nil, domain.ErrForbidden
		}
		return own, nil
	}
	return parseID("partner_id", requested)
}

func parseID(field, v string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrInvalidInput, field)
	}
	return id, nil
}

func parseOptionalID(field, v string) (*uuid.UUID, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	id, err := parseID(field, v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// actorRecipients lists the notification addresses an actor reads from.
func actorRecipients(actor Actor) []string {
	out := []string{strings.TrimSpace(actor.SubjectID)}
	if isAdmin(actor) {
		out = append(out, domain.AdminRecipient)
	}
	if normalizeRole(actor.Role) == RolePartner && strings.TrimSpace(actor.PartnerID) != "" {
		out = append(out, domain.PartnerRecipient(strings.TrimSpace(actor.PartnerID)))
	}
	return out
}
