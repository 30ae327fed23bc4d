package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	eventadapter "github.com/viralforge/partner-portal/internal/adapters/events"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

func memoryRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := defaultConfig()
	cfg.OutboxPollInterval = 10 * time.Millisecond
	cfg.ConsumerPollInterval = 10 * time.Millisecond
	rt, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestMemoryRuntimeServesHTTP(t *testing.T) {
	rt := memoryRuntime(t)
	srv := httptest.NewServer(rt.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	names, err := rt.Migrate(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
	require.Nil(t, rt.Readiness())
}

func TestRuntimeServiceUsesConfiguredFactor(t *testing.T) {
	cfg := defaultConfig()
	cfg.DepreciationFactor = 0.25
	cfg.DefaultCurrency = "USD"
	rt, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer rt.Close()

	svcCfg := rt.Service().Config()
	require.Equal(t, 0.25, svcCfg.DepreciationFactor)
	require.Equal(t, "USD", svcCfg.DefaultCurrency)
}

func TestTopicByEventRoutesMonthCloseSeparately(t *testing.T) {
	rt := memoryRuntime(t)
	topics := rt.topicByEvent()
	require.Equal(t, "partner.commissions", topics[domain.EventCommissionMonthClosed])
	require.Equal(t, "partner.portal", topics[domain.EventSaleRecorded])
	require.Equal(t, "partner.portal", topics[domain.EventTicketCreated])
}

func TestMessagingFallsBackWithoutBrokers(t *testing.T) {
	rt := memoryRuntime(t)
	publisher, consumer, closeFn := rt.messaging(context.Background())
	defer closeFn()
	require.IsType(t, &eventadapter.LoggingPublisher{}, publisher)
	require.IsType(t, &eventadapter.NoopConsumer{}, consumer)
}

func TestRunWorkerRelaysOutboxUntilCancelled(t *testing.T) {
	rt := memoryRuntime(t)
	admin := application.Actor{SubjectID: "ops", Role: application.RoleAdmin, RequestID: "req-1"}
	_, err := rt.Service().CreatePartner(context.Background(), admin, application.CreatePartnerInput{
		Name:  "Acme Distributors",
		Email: "ops@acme.example",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.RunWorker(ctx) }()

	require.Eventually(t, func() bool {
		pending, err := rt.Outbox().FetchUnpublished(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
