package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/partner-portal/internal/domain"
)

func TestLeadTransitions(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	lead := domain.Lead{Status: domain.LeadStatusNew}
	require.NoError(t, lead.TransitionTo(domain.LeadStatusContacted, now))
	require.NoError(t, lead.TransitionTo(domain.LeadStatusQualified, now))
	require.NoError(t, lead.TransitionTo(domain.LeadStatusConverted, now))
	assert.True(t, lead.Status.IsTerminal())
	assert.Equal(t, now, lead.UpdatedAt)

	err := lead.TransitionTo(domain.LeadStatusContacted, now)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	direct := domain.Lead{Status: domain.LeadStatusNew}
	require.NoError(t, direct.TransitionTo(domain.LeadStatusConverted, now))

	lost := domain.Lead{Status: domain.LeadStatusQualified}
	require.NoError(t, lost.TransitionTo(domain.LeadStatusLost, now))
	require.ErrorIs(t, lost.TransitionTo(domain.LeadStatusQualified, now), domain.ErrInvalidTransition)

	_, err = domain.ParseLeadStatus("archived")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTicketTransitions(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	ticket := domain.Ticket{Status: domain.TicketStatusOpen}
	require.NoError(t, ticket.TransitionTo(domain.TicketStatusInProgress, now))
	require.NoError(t, ticket.TransitionTo(domain.TicketStatusResolved, now))
	require.NoError(t, ticket.TransitionTo(domain.TicketStatusInProgress, now))
	require.NoError(t, ticket.TransitionTo(domain.TicketStatusClosed, now))
	require.NotNil(t, ticket.ClosedAt)

	err := ticket.TransitionTo(domain.TicketStatusOpen, now)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	shortcuts := []struct {
		from, to domain.TicketStatus
	}{
		{domain.TicketStatusOpen, domain.TicketStatusResolved},
		{domain.TicketStatusOpen, domain.TicketStatusClosed},
		{domain.TicketStatusInProgress, domain.TicketStatusClosed},
	}
	for _, tc := range shortcuts {
		ticket := domain.Ticket{Status: tc.from}
		assert.NoError(t, ticket.TransitionTo(tc.to, now), "%s -> %s", tc.from, tc.to)
	}

	rejected := []struct {
		from, to domain.TicketStatus
	}{
		{domain.TicketStatusInProgress, domain.TicketStatusOpen},
		{domain.TicketStatusResolved, domain.TicketStatusOpen},
		{domain.TicketStatusClosed, domain.TicketStatusOpen},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress},
		{domain.TicketStatusClosed, domain.TicketStatusResolved},
	}
	for _, tc := range rejected {
		ticket := domain.Ticket{Status: tc.from}
		assert.ErrorIs(t, ticket.TransitionTo(tc.to, now), domain.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
	}

	assert.True(t, strings.HasPrefix(domain.NewTicketNumber(now), "TKT-"))
	assert.Equal(t, "normal", domain.NormalizeTicketPriority("whatever"))
	assert.Equal(t, "commission", domain.NormalizeTicketCategory("Billing"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.ValidateSlab("Bronze", 0, 30, 5))
	require.ErrorIs(t, domain.ValidateSlab("Bronze", 30, 30, 5), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateSlab("Bronze", 0, 0, 120), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateSlab(" ", 0, 0, 5), domain.ErrInvalidInput)

	require.NoError(t, domain.ValidateKit("kit-01", "Starter kit", 499, 10))
	require.ErrorIs(t, domain.ValidateKit("k", "Starter kit", 499, 10), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateKit("KIT-01", "Starter kit", -1, 10), domain.ErrInvalidInput)

	require.NoError(t, domain.ValidateEmail("ops@partner.example"))
	require.ErrorIs(t, domain.ValidateEmail("not-an-email"), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateSaleAmount(-5, "INR"), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateSaleAmount(5, "RUPEE"), domain.ErrInvalidInput)

	kind, err := domain.ParseSaleKind("")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleKindNew, kind)
}
