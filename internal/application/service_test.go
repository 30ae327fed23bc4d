package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/partner-portal/internal/adapters/memory"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc   *application.Service
	repos *memory.Repositories
	admin application.Actor
}

func newHarness(t *testing.T) harness {
	t.Helper()
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Config:        application.Config{ServiceName: "partner-portal", DefaultCurrency: "INR", DepreciationFactor: 0.5},
		Partners:      repos.Partners,
		Leads:         repos.Leads,
		Kits:          repos.Kits,
		Sales:         repos.Sales,
		Slabs:         repos.Slabs,
		Payouts:       repos.Payouts,
		Tickets:       repos.Tickets,
		Replies:       repos.Replies,
		Notifications: repos.Notifications,
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Idempotency:   repos.Idempotency,
		Cache:         memory.NewCache(),
		Clock:         func() time.Time { return fixedNow },
	})
	return harness{svc: svc, repos: repos, admin: application.Actor{SubjectID: "admin-1", Role: application.RoleAdmin}}
}

func (h harness) withKey(actor application.Actor, key string) application.Actor {
	actor.IdempotencyKey = key
	return actor
}

func (h harness) seedPartner(t *testing.T, name, email string) (domain.Partner, application.Actor) {
	t.Helper()
	partner, err := h.svc.CreatePartner(context.Background(), h.admin, application.CreatePartnerInput{Name: name, Email: email})
	require.NoError(t, err)
	return partner, application.Actor{SubjectID: "user-" + email, Role: application.RolePartner, PartnerID: partner.PartnerID.String()}
}

func (h harness) seedKit(t *testing.T, sku string, qty int) domain.Kit {
	t.Helper()
	kit, err := h.svc.CreateKit(context.Background(), h.admin, application.CreateKitInput{SKU: sku, Name: "Kit " + sku, UnitPrice: 1000, Quantity: qty})
	require.NoError(t, err)
	return kit
}

func (h harness) distribute(t *testing.T, kit domain.Kit, partner domain.Partner, qty int, key string) {
	t.Helper()
	_, err := h.svc.DistributeKits(context.Background(), h.withKey(h.admin, key), application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: qty,
	})
	require.NoError(t, err)
}

func at(month time.Month, day int) *time.Time {
	t := time.Date(2026, month, day, 10, 0, 0, 0, time.UTC)
	return &t
}

func TestDistributeKitsMovesStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 5)

	result, err := h.svc.DistributeKits(ctx, h.withKey(h.admin, "dist-1"), application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Kit.Quantity)
	assert.Equal(t, 3, result.Kit.Distributed)
	assert.Equal(t, 3, result.Stock.Quantity)

	_, err = h.svc.DistributeKits(ctx, h.withKey(h.admin, "dist-2"), application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 10,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = h.svc.DistributeKits(ctx, h.admin, application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 1,
	})
	require.ErrorIs(t, err, domain.ErrIdempotencyRequired)

	_, err = h.svc.DistributeKits(ctx, h.withKey(partnerActor, "dist-3"), application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 1,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)

	stock, err := h.svc.ListPartnerStock(ctx, partnerActor, "")
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, 3, stock[0].Quantity)
	assert.Equal(t, "KIT-01", stock[0].SKU)
}

func TestRecordSaleConsumesStockAndConvertsLead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 5)
	h.distribute(t, kit, partner, 1, "dist-1")

	lead, err := h.svc.CreateLead(ctx, partnerActor, application.CreateLeadInput{Name: "Ravi Kumar", Source: "walk-in"})
	require.NoError(t, err)
	assert.Equal(t, partner.PartnerID, lead.PartnerID)

	input := application.RecordSaleInput{KitID: kit.KitID.String(), LeadID: lead.LeadID.String(), Amount: 1000}
	sale, err := h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-1"), input)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleKindNew, sale.Kind)
	assert.Equal(t, "INR", sale.Currency)

	converted, err := h.svc.GetLead(ctx, partnerActor, lead.LeadID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusConverted, converted.Status)
	require.NotNil(t, converted.ConvertedSaleID)
	assert.Equal(t, sale.SaleID, *converted.ConvertedSaleID)

	replayed, err := h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-1"), input)
	require.NoError(t, err)
	assert.Equal(t, sale.SaleID, replayed.SaleID)

	_, err = h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-1"), application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 5})
	require.ErrorIs(t, err, domain.ErrIdempotencyConflict)

	_, err = h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-2"), application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 1000})
	require.ErrorIs(t, err, domain.ErrInsufficientStock, "the only unit was sold")

	renewal, err := h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-3"), application.RecordSaleInput{
		Kind: "renewal", ParentSaleID: sale.SaleID.String(), Amount: 400,
	})
	require.NoError(t, err, "renewals do not need stock")
	assert.Equal(t, kit.KitID, renewal.KitID)

	_, err = h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-4"), application.RecordSaleInput{
		KitID: kit.KitID.String(), Amount: -1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSuspendedPartnerCannotSellOrReceiveKits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 5)
	h.distribute(t, kit, partner, 2, "dist-1")

	_, err := h.svc.SetPartnerStatus(ctx, h.admin, partner.PartnerID.String(), "suspended")
	require.NoError(t, err)

	_, err = h.svc.RecordSale(ctx, h.withKey(partnerActor, "sale-1"), application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 10})
	require.ErrorIs(t, err, domain.ErrPartnerSuspended)

	_, err = h.svc.DistributeKits(ctx, h.withKey(h.admin, "dist-2"), application.DistributeKitsInput{
		KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 1,
	})
	require.ErrorIs(t, err, domain.ErrPartnerSuspended)

	notes, err := h.svc.ListNotifications(ctx, partnerActor, application.ListInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, notes)
}

func TestPartnerScopeIsEnforced(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, alice := h.seedPartner(t, "Alice Retail", "alice@retail.example")
	_, bob := h.seedPartner(t, "Bob Retail", "bob@retail.example")

	lead, err := h.svc.CreateLead(ctx, alice, application.CreateLeadInput{Name: "Meena"})
	require.NoError(t, err)

	_, err = h.svc.GetLead(ctx, bob, lead.LeadID.String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.ListPartners(ctx, bob, application.ListInput{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.CreateLead(ctx, bob, application.CreateLeadInput{PartnerID: alice.PartnerID, Name: "Sneaky"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	leads, err := h.svc.ListLeads(ctx, bob, application.ListInput{})
	require.NoError(t, err)
	assert.Empty(t, leads)

	_, err = h.svc.GetPartner(ctx, application.Actor{}, alice.PartnerID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLeadLifecycleAndReassignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, alice := h.seedPartner(t, "Alice Retail", "alice@retail.example")
	bobPartner, bob := h.seedPartner(t, "Bob Retail", "bob@retail.example")

	lead, err := h.svc.CreateLead(ctx, alice, application.CreateLeadInput{Name: "Meena"})
	require.NoError(t, err)

	lead, err = h.svc.UpdateLeadStatus(ctx, alice, lead.LeadID.String(), application.UpdateLeadStatusInput{Status: "contacted"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusContacted, lead.Status)

	_, err = h.svc.UpdateLeadStatus(ctx, alice, lead.LeadID.String(), application.UpdateLeadStatusInput{Status: "converted"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	moved, err := h.svc.ReassignLead(ctx, h.admin, lead.LeadID.String(), application.ReassignLeadInput{PartnerID: bobPartner.PartnerID.String()})
	require.NoError(t, err)
	assert.Equal(t, bobPartner.PartnerID, moved.PartnerID)

	_, err = h.svc.GetLead(ctx, bob, lead.LeadID.String())
	require.NoError(t, err)

	notes, err := h.svc.ListNotifications(ctx, bob, application.ListInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "lead_assigned", notes[0].Type)

	lost, err := h.svc.UpdateLeadStatus(ctx, bob, lead.LeadID.String(), application.UpdateLeadStatusInput{Status: "lost"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusLost, lost.Status)

	_, err = h.svc.ReassignLead(ctx, h.admin, lead.LeadID.String(), application.ReassignLeadInput{PartnerID: alice.PartnerID})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSlabRangeConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Bronze", MinSales: 0, MaxSales: 30, RatePercent: 5})
	require.NoError(t, err)
	_, err = h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Bronze again", MinSales: 0, MaxSales: 30, RatePercent: 6})
	require.ErrorIs(t, err, domain.ErrConflict)

	silver, err := h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Silver", MinSales: 30, MaxSales: 70, RatePercent: 7})
	require.NoError(t, err)
	_, err = h.svc.UpdateSlab(ctx, h.admin, silver.SlabID.String(), application.SlabInput{Name: "Silver", MinSales: 0, MaxSales: 30, RatePercent: 7})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = h.svc.CreateSlab(ctx, application.Actor{SubjectID: "agent-1", Role: application.RoleAgent}, application.SlabInput{Name: "Gold", MinSales: 70, RatePercent: 9})
	require.ErrorIs(t, err, domain.ErrForbidden)

	slabs, err := h.svc.ListSlabs(ctx, h.admin)
	require.NoError(t, err)
	require.Len(t, slabs, 2)
	assert.Equal(t, "Bronze", slabs[0].Name)
}

func TestStatementRecomputesAndCloseMonth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 10)
	h.distribute(t, kit, partner, 5, "dist-1")

	_, err := h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Starter", MinSales: 0, MaxSales: 2, RatePercent: 10})
	require.NoError(t, err)
	_, err = h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Pro", MinSales: 2, RatePercent: 20})
	require.NoError(t, err)

	for i, day := range []int{10, 11} {
		_, err := h.svc.RecordSale(ctx, h.withKey(partnerActor, "feb-"+string(rune('a'+i))), application.RecordSaleInput{
			KitID: kit.KitID.String(), Amount: 1000, SoldAt: at(time.February, day),
		})
		require.NoError(t, err)
	}

	stmt, err := h.svc.GetStatement(ctx, partnerActor, application.StatementQuery{})
	require.NoError(t, err)
	require.Len(t, stmt.Periods, 2)
	assert.Equal(t, 400.0, stmt.Periods[0].Total)
	assert.Equal(t, 200.0, stmt.Periods[1].Total)
	assert.Equal(t, 600.0, stmt.GrandTotal)
	require.NotNil(t, stmt.Progress)
	assert.Equal(t, "2026-03", stmt.Progress.Period)
	require.NotNil(t, stmt.Progress.NextSlab)
	assert.Equal(t, 2, stmt.Progress.SalesNeeded)

	_, err = h.svc.RecordSale(ctx, h.withKey(partnerActor, "mar-a"), application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 1000})
	require.NoError(t, err)

	stmt, err = h.svc.GetStatement(ctx, partnerActor, application.StatementQuery{})
	require.NoError(t, err)
	assert.Equal(t, 700.0, stmt.GrandTotal, "cached statement must be invalidated by a new sale")
	assert.Equal(t, 1, stmt.Progress.SalesNeeded)

	feb, err := h.svc.GetStatement(ctx, h.admin, application.StatementQuery{PartnerID: partner.PartnerID.String(), From: "2026-02", To: "2026-02"})
	require.NoError(t, err)
	assert.Equal(t, 400.0, feb.GrandTotal)

	report, err := h.svc.CommissionReport(ctx, h.admin, "2026-02")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 400.0, report.Total)

	closed, err := h.svc.CloseMonth(ctx, h.admin, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 1, closed.Created)
	assert.Equal(t, 400.0, closed.Total)

	again, err := h.svc.CloseMonth(ctx, h.admin, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.Existing)
	assert.Equal(t, closed.Payouts[0].PayoutID, again.Payouts[0].PayoutID)

	_, err = h.svc.CloseMonth(ctx, h.admin, "2026-03")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	payouts, err := h.svc.ListPayouts(ctx, partnerActor, "")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, "2026-02", payouts[0].Period)
}

func TestCancelledSaleDropsFromStatement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 10)
	h.distribute(t, kit, partner, 2, "dist-1")
	_, err := h.svc.CreateSlab(ctx, h.admin, application.SlabInput{Name: "Flat", MinSales: 0, RatePercent: 10})
	require.NoError(t, err)

	sale, err := h.svc.RecordSale(ctx, h.withKey(partnerActor, "s-1"), application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 500})
	require.NoError(t, err)
	before, err := h.svc.GetStatement(ctx, partnerActor, application.StatementQuery{})
	require.NoError(t, err)
	assert.Equal(t, 75.0, before.GrandTotal, "first month plus the projected second month")

	_, err = h.svc.CancelSale(ctx, partnerActor, sale.SaleID.String())
	require.ErrorIs(t, err, domain.ErrForbidden)
	cancelled, err := h.svc.CancelSale(ctx, h.admin, sale.SaleID.String())
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled())

	after, err := h.svc.GetStatement(ctx, partnerActor, application.StatementQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, after.GrandTotal)
}

func TestTicketConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, partnerActor := h.seedPartner(t, "Acme Traders", "ops@acme.example")

	ticket, err := h.svc.CreateTicket(ctx, partnerActor, application.CreateTicketInput{
		Subject: "Commission missing", Description: "February payout looks low", Category: "billing", Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "commission", ticket.Category)

	_, err = h.svc.ReplyToTicket(ctx, h.admin, ticket.TicketID.String(), application.ReplyTicketInput{Body: "Looking into it"})
	require.NoError(t, err)

	resolved, err := h.svc.UpdateTicketStatus(ctx, h.admin, ticket.TicketID.String(), application.UpdateTicketStatusInput{Status: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	_, err = h.svc.ReplyToTicket(ctx, partnerActor, ticket.TicketID.String(), application.ReplyTicketInput{Body: "Still wrong"})
	require.NoError(t, err)

	detail, err := h.svc.GetTicket(ctx, partnerActor, ticket.TicketID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, detail.Ticket.Status, "partner reply reopens a resolved ticket")
	assert.Len(t, detail.Replies, 2)

	_, err = h.svc.UpdateTicketStatus(ctx, partnerActor, ticket.TicketID.String(), application.UpdateTicketStatusInput{Status: "resolved"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	closed, err := h.svc.UpdateTicketStatus(ctx, partnerActor, ticket.TicketID.String(), application.UpdateTicketStatusInput{Status: "closed"})
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	_, err = h.svc.ReplyToTicket(ctx, partnerActor, ticket.TicketID.String(), application.ReplyTicketInput{Body: "hello?"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	notes, err := h.svc.ListNotifications(ctx, partnerActor, application.ListInput{UnreadOnly: true})
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	read, err := h.svc.MarkNotificationRead(ctx, partnerActor, notes[0].NotificationID.String())
	require.NoError(t, err)
	assert.False(t, read.IsUnread())

	_, err = h.svc.MarkNotificationRead(ctx, h.withKey(application.Actor{SubjectID: "x", Role: application.RoleAgent}, ""), notes[0].NotificationID.String())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleOrderCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner, _ := h.seedPartner(t, "Acme Traders", "ops@acme.example")
	kit := h.seedKit(t, "KIT-01", 10)
	h.distribute(t, kit, partner, 2, "dist-1")

	payload := []byte(`{"event_id":"evt-1","event_type":"order.completed","data":{"order_id":"ORD-9","partner_id":"` +
		partner.PartnerID.String() + `","kit_id":"` + kit.KitID.String() + `","amount":1200,"currency":"INR"}}`)
	require.NoError(t, h.svc.HandleOrderCompleted(ctx, payload))
	require.NoError(t, h.svc.HandleOrderCompleted(ctx, payload), "duplicate delivery is ignored")

	sales, err := h.repos.Sales.ListByPartner(ctx, partner.PartnerID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "ORD-9", sales[0].OrderRef)

	bad := []byte(`{"event_id":"evt-2","event_type":"order.completed","data":{"partner_id":"nope"}}`)
	require.ErrorIs(t, h.svc.HandleOrderCompleted(ctx, bad), domain.ErrInvalidInput)
	dup, err := h.repos.EventDedup.IsDuplicate(ctx, "evt-2", fixedNow)
	require.NoError(t, err)
	assert.True(t, dup, "permanently invalid events are not retried")

	require.ErrorIs(t, h.svc.HandleOrderCompleted(ctx, []byte(`{`)), domain.ErrInvalidInput)
}

func TestStateChangesEnqueueEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedPartner(t, "Acme Traders", "ops@acme.example")

	records, err := h.repos.Outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.EventPartnerCreated, records[0].EventType)
	assert.Contains(t, string(records[0].Payload), `"schema_version":"1.0"`)
	assert.Contains(t, string(records[0].Payload), `"partition_key_path":"data.partner_id"`)
}
