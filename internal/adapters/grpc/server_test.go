package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flakyStore struct {
	down atomic.Bool
}

func (f *flakyStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func servingStatus(t *testing.T, srv *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServerFollowsStore(t *testing.T) {
	store := &flakyStore{}
	srv := NewHealthServer(quietLogger(), store, time.Minute)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv, ""))

	require.Equal(t, healthpb.HealthCheckResponse_SERVING, srv.Check(context.Background()))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, srv, ""))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, srv, ServiceName))

	store.down.Store(true)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, srv.Check(context.Background()))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv, ServiceName))
}

func TestHealthServerWithoutCheckerServes(t *testing.T) {
	srv := NewHealthServer(quietLogger(), nil, 0)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, srv.Check(context.Background()))
}

func TestHealthServerRunStopsOnCancel(t *testing.T) {
	srv := NewHealthServer(quietLogger(), &flakyStore{}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := srv.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("health loop did not stop")
	}
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv, ""))
}
