package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/partner-portal/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry reported next to the overall "" entry.
const ServiceName = "partner_portal.v1.PartnerPortal"

// HealthServer mirrors the store's reachability into the standard gRPC health service.
type HealthServer struct {
	logger   *slog.Logger
	checker  ports.HealthChecker
	health   *health.Server
	interval time.Duration
	timeout  time.Duration
}

func NewHealthServer(logger *slog.Logger, checker ports.HealthChecker, interval time.Duration) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	srv := &HealthServer{
		logger:   logger,
		checker:  checker,
		health:   health.NewServer(),
		interval: interval,
		timeout:  2 * time.Second,
	}
	srv.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return srv
}

func Register(server grpc.ServiceRegistrar, srv *HealthServer) {
	healthpb.RegisterHealthServer(server, srv.health)
}

// Check pings the store once and publishes the result.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checker.Ping(pingCtx)
		cancel()
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.WarnContext(ctx, "store ping failed",
				"module", "grpc.health",
				"layer", "adapter",
				"operation", "health_check",
				"outcome", "failure",
				"error", err,
			)
		}
	}
	s.setStatus(status)
	return status
}

// Run re-checks on every tick until ctx is done, then marks the service as shutting down.
func (s *HealthServer) Run(ctx context.Context) error {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return ctx.Err()
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *HealthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
