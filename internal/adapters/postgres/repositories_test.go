package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRunMigrationsAppliesPendingFiles(t *testing.T) {
	db, mock := newMockDB(t)
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "name" FROM "schema_migrations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	for _, name := range names {
		mock.ExpectBegin()
		mock.ExpectExec(".+").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
			WithArgs(name).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	applied, err := RunMigrations(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, names, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsSkipsRecordedFiles(t *testing.T) {
	db, mock := newMockDB(t)
	names, err := MigrationNames()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range names {
		rows.AddRow(name)
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "name" FROM "schema_migrations"`)).WillReturnRows(rows)

	applied, err := RunMigrations(context.Background(), db)
	require.NoError(t, err)
	require.Empty(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPartnerGetMapsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Partners

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "partners"`)).
		WillReturnRows(sqlmock.NewRows([]string{"partner_id", "name"}))

	_, err := repo.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributeReportsInsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Kits
	kitID, partnerID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "partners"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "kits"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kits"`)).
		WillReturnRows(sqlmock.NewRows([]string{"kit_id", "sku", "name", "unit_price", "quantity", "distributed", "created_at", "updated_at"}).
			AddRow(kitID.String(), "KIT-01", "Starter", 10.0, 2, 0, now, now))
	mock.ExpectRollback()

	_, err := repo.Distribute(context.Background(), ports.DistributeKitsParams{
		DistributionID: uuid.New(),
		KitID:          kitID,
		PartnerID:      partnerID,
		Quantity:       5,
		DistributedBy:  "admin-1",
		At:             now,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributeUnknownPartner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Kits

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "partners"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := repo.Distribute(context.Background(), ports.DistributeKitsParams{
		DistributionID: uuid.New(), KitID: uuid.New(), PartnerID: uuid.New(), Quantity: 1, At: time.Now().UTC(),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutCreateIfAbsentReturnsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Payouts
	partnerID, existingID := uuid.New(), uuid.New()
	closedAt := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "commission_payouts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "commission_payouts"`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"payout_id", "partner_id", "period", "currency", "first_month_count", "second_month_count",
			"first_month_total", "second_month_total", "total", "closed_by", "closed_at",
		}).AddRow(existingID.String(), partnerID.String(), "2026-02", "INR", 3, 1, 300.0, 50.0, 350.0, "system", closedAt))

	got, created, err := repo.CreateIfAbsent(context.Background(), domain.CommissionPayout{
		PayoutID: uuid.New(), PartnerID: partnerID, Period: "2026-02", Currency: "INR", Total: 999,
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, existingID, got.PayoutID)
	require.Equal(t, 350.0, got.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReleaseOnlyDropsPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Idempotency

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "portal_idempotency"`)).
		WithArgs("actor:op:key", ports.IdempotencyPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Release(context.Background(), "actor:op:key"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	require.False(t, isUniqueViolation(nil))
	require.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
	require.ErrorIs(t, translateWrite(gorm.ErrDuplicatedKey), domain.ErrConflict)
}

func TestOutboxFetchOrdersLeastRetriedFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).Outbox
	id := uuid.New()
	seen := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "portal_outbox" WHERE published_at IS NULL ORDER BY retry_count ASC,created_at ASC LIMIT $1`)).
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows([]string{"outbox_id", "event_type", "partition_key", "payload", "retry_count", "first_seen_at"}).
			AddRow(id.String(), "sale.recorded", "p-1", `{"event_id":"x"}`, 2, seen))

	records, err := repo.FetchUnpublished(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, id, records[0].OutboxID)
	require.Equal(t, 2, records[0].RetryCount)
	require.JSONEq(t, `{"event_id":"x"}`, string(records[0].Payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDedupSeesLiveRowOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).EventDedup
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "event_id" FROM "portal_event_dedup" WHERE event_id = $1 AND expires_at > $2 LIMIT $3`)).
		WithArgs("evt-1", now, 1).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "event_id" FROM "portal_event_dedup"`)).
		WithArgs("evt-2", now, 1).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}))

	dup, err := repo.IsDuplicate(context.Background(), "evt-1", now)
	require.NoError(t, err)
	require.True(t, dup)
	dup, err = repo.IsDuplicate(context.Background(), "evt-2", now)
	require.NoError(t, err)
	require.False(t, dup)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDedupMarkProcessedUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepositories(db).EventDedup

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "portal_event_dedup"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT ("event_id") DO UPDATE SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkProcessed(context.Background(), "evt-1", "order.completed", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
