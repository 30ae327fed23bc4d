package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viralforge/partner-portal/internal/app/bootstrap"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

// sharedBackend keeps one in-memory runtime alive across command invocations.
type sharedBackend struct {
	*bootstrap.Runtime
}

func (sharedBackend) Close() {}

type fixture struct {
	backend   sharedBackend
	partnerID string
	kitID     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg, err := bootstrap.LoadConfig("")
	require.NoError(t, err)
	rt, err := bootstrap.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	ctx := context.Background()
	svc := rt.Service()
	admin := func(key string) application.Actor {
		return application.Actor{SubjectID: "ops", Role: application.RoleAdmin, IdempotencyKey: key}
	}
	partner, err := svc.CreatePartner(ctx, admin("p1"), application.CreatePartnerInput{Name: "Northwind", Email: "team@northwind.example"})
	require.NoError(t, err)
	_, err = svc.CreateSlab(ctx, admin(""), application.SlabInput{Name: "Starter", MinSales: 0, MaxSales: 30, RatePercent: 10})
	require.NoError(t, err)
	kit, err := svc.CreateKit(ctx, admin(""), application.CreateKitInput{SKU: "KIT-A", Name: "Starter kit", UnitPrice: 1000, Quantity: 5})
	require.NoError(t, err)
	_, err = svc.DistributeKits(ctx, admin("d1"), application.DistributeKitsInput{KitID: kit.KitID.String(), PartnerID: partner.PartnerID.String(), Quantity: 2})
	require.NoError(t, err)

	seller := application.Actor{SubjectID: "seller", Role: application.RolePartner, PartnerID: partner.PartnerID.String(), IdempotencyKey: "s1"}
	_, err = svc.RecordSale(ctx, seller, application.RecordSaleInput{KitID: kit.KitID.String(), Amount: 1000})
	require.NoError(t, err)

	return fixture{backend: sharedBackend{rt}, partnerID: partner.PartnerID.String(), kitID: kit.KitID.String()}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func(context.Context, string) (Backend, error) { return f.backend, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatementCommandRendersTable(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "statement", "--partner", f.partnerID)
	require.NoError(t, err)
	require.Contains(t, out, f.partnerID)
	require.Contains(t, out, "100.00")
	require.Contains(t, out, "Starter (10%)")
}

func TestStatementCommandJSON(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "statement", "-p", f.partnerID, "-o", "json")
	require.NoError(t, err)

	var result application.StatementResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, 100.0, result.GrandTotal)
	require.Len(t, result.Periods, 1)
	require.Equal(t, 1, result.Periods[0].FirstMonthCount)
}

func TestStatementCommandRequiresPartner(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "statement")
	require.ErrorContains(t, err, "partner")
}

func TestStatementCommandRejectsBadAsOf(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "statement", "-p", f.partnerID, "--as-of", "yesterday")
	require.ErrorContains(t, err, "RFC3339")
}

func TestReportCommandListsPartner(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "report", "-o", "json")
	require.NoError(t, err)

	var report application.CommissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Rows, 1)
	require.Equal(t, "Northwind", report.Rows[0].PartnerName)
	require.Equal(t, 100.0, report.Total)
}

func TestCloseMonthRejectsOpenPeriod(t *testing.T) {
	f := newFixture(t)
	current := domain.PeriodOf(time.Now()).String()
	_, err := f.run(t, "close-month", "--period", current)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCloseMonthPreviousPeriodIsRepeatable(t *testing.T) {
	f := newFixture(t)
	soldAt := domain.PeriodOf(time.Now()).Prev().Start().Add(36 * time.Hour)
	seller := application.Actor{SubjectID: "seller", Role: application.RolePartner, PartnerID: f.partnerID, IdempotencyKey: "s2"}
	_, err := f.backend.Service().RecordSale(context.Background(), seller, application.RecordSaleInput{
		KitID:  f.kitID,
		Amount: 500,
		SoldAt: &soldAt,
	})
	require.NoError(t, err)

	out, err := f.run(t, "close-month", "-o", "json")
	require.NoError(t, err)
	var first application.CloseMonthResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.Equal(t, 1, first.Created)
	require.Equal(t, 50.0, first.Total)

	out, err = f.run(t, "close-month", "-o", "json")
	require.NoError(t, err)
	var second application.CloseMonthResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	require.Equal(t, 0, second.Created)
	require.Equal(t, 1, second.Existing)
}

func TestStockCommand(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "stock", "--partner", f.partnerID)
	require.NoError(t, err)
	require.Contains(t, out, "KIT-A")
	require.Contains(t, out, f.kitID)

	out, err = f.run(t, "stock")
	require.NoError(t, err)
	require.Contains(t, out, "Starter kit")
}

func TestMigrateOnMemoryDriver(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "nothing to migrate")
}

func TestUnknownOutputFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "report", "-o", "yaml")
	require.ErrorContains(t, err, "unknown output format")
}
