package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/partner-portal/internal/adapters/cache"
	eventadapter "github.com/viralforge/partner-portal/internal/adapters/events"
	grpcadapter "github.com/viralforge/partner-portal/internal/adapters/grpc"
	httpadapter "github.com/viralforge/partner-portal/internal/adapters/http"
	"github.com/viralforge/partner-portal/internal/adapters/memory"
	"github.com/viralforge/partner-portal/internal/adapters/postgres"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/observability"
	"github.com/viralforge/partner-portal/internal/ports"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"gorm.io/gorm"
)

type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	service   *application.Service
	outbox    ports.OutboxRepository
	readiness ports.HealthChecker
	db        *gorm.DB
	closers   []func() error
}

func NewLogger(serviceID string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", serviceID)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.ServiceID)
	slog.SetDefault(logger)
	return New(ctx, cfg, logger)
}

// New opens storage and cache for cfg and builds the application service. Network
// listeners are only opened by RunAPI.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = NewLogger(cfg.ServiceID)
	}
	observability.RegisterMetrics()
	r := &Runtime{cfg: cfg, logger: logger}

	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:        cfg.ServiceID,
			DefaultCurrency:    cfg.DefaultCurrency,
			DepreciationFactor: cfg.DepreciationFactor,
			StatementCacheTTL:  cfg.StatementCacheTTL,
			IdempotencyTTL:     cfg.IdempotencyTTL,
			EventDedupTTL:      cfg.EventDedupTTL,
		},
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		r.db = db
		r.closers = append(r.closers, sqlDB.Close)
		if cfg.AutoMigrate {
			applied, err := postgres.RunMigrations(ctx, db)
			if err != nil {
				r.Close()
				return nil, err
			}
			if len(applied) > 0 {
				logger.Info("schema migrated", "module", "bootstrap", "layer", "app", "operation", "migrate", "outcome", "success", "applied", applied)
			}
		}
		repos := postgres.NewRepositories(db)
		deps.Partners = repos.Partners
		deps.Leads = repos.Leads
		deps.Kits = repos.Kits
		deps.Sales = repos.Sales
		deps.Slabs = repos.Slabs
		deps.Payouts = repos.Payouts
		deps.Tickets = repos.Tickets
		deps.Replies = repos.Replies
		deps.Notifications = repos.Notifications
		deps.Outbox = repos.Outbox
		deps.EventDedup = repos.EventDedup
		deps.Idempotency = repos.Idempotency
		r.readiness = postgres.NewPinger(db)
	default:
		repos := memory.NewRepositories()
		deps.Partners = repos.Partners
		deps.Leads = repos.Leads
		deps.Kits = repos.Kits
		deps.Sales = repos.Sales
		deps.Slabs = repos.Slabs
		deps.Payouts = repos.Payouts
		deps.Tickets = repos.Tickets
		deps.Replies = repos.Replies
		deps.Notifications = repos.Notifications
		deps.Outbox = repos.Outbox
		deps.EventDedup = repos.EventDedup
		deps.Idempotency = repos.Idempotency
		logger.WarnContext(ctx, "using in-memory storage; data is lost on restart",
			"module", "bootstrap",
			"layer", "runtime",
			"operation", "open_storage",
			"outcome", "memory",
		)
	}
	r.outbox = deps.Outbox

	switch {
	case cfg.RedisURL != "":
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closers = append(r.closers, client.Close)
		deps.Cache = cache.NewRedisCache(client, cfg.ServiceID+":")
	case cfg.StorageDriver == DriverMemory:
		deps.Cache = memory.NewCache()
	}

	r.service = application.NewService(deps)
	return r, nil
}

func (r *Runtime) Config() Config                 { return r.cfg }
func (r *Runtime) Logger() *slog.Logger           { return r.logger }
func (r *Runtime) Service() *application.Service  { return r.service }
func (r *Runtime) Readiness() ports.HealthChecker { return r.readiness }
func (r *Runtime) Outbox() ports.OutboxRepository { return r.outbox }

// Migrate applies pending embedded migrations and returns their names. The memory
// driver has nothing to migrate.
func (r *Runtime) Migrate(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, nil
	}
	return postgres.RunMigrations(ctx, r.db)
}

func (r *Runtime) HTTPHandler() http.Handler {
	var limiter *httpadapter.RateLimiter
	if r.cfg.RateLimitRPS > 0 {
		limiter = httpadapter.NewRateLimiter(r.cfg.RateLimitRPS, r.cfg.RateLimitBurst)
	}
	return httpadapter.NewRouter(httpadapter.NewHandler(r.service), httpadapter.RouterOptions{
		Auth:      httpadapter.NewAuthenticator(r.cfg.JWTSecret),
		Limiter:   limiter,
		Readiness: r.readiness,
	})
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           r.HTTPHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := grpc.NewServer()
	health := grpcadapter.NewHealthServer(r.logger, r.readiness, 5*time.Second)
	grpcadapter.Register(grpcServer, health)

	g, gctx := errgroup.WithContext(ctx)
	// in-memory state is invisible to a separate worker process
	if r.cfg.StorageDriver == DriverMemory {
		cleanup, err := r.startWorkers(gctx, g)
		if err != nil {
			_ = lis.Close()
			return err
		}
		defer cleanup()
	}
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(health.Run(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})

	r.logger.InfoContext(ctx, "api started", "http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort)
	if err := g.Wait(); err != nil {
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
		return err
	}
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	g, gctx := errgroup.WithContext(ctx)
	cleanup, err := r.startWorkers(gctx, g)
	if err != nil {
		return err
	}
	defer cleanup()
	return g.Wait()
}

// startWorkers runs the outbox relay, the order consumer and the month-close job on g.
func (r *Runtime) startWorkers(ctx context.Context, g *errgroup.Group) (func(), error) {
	publisher, consumer, closeKafka := r.messaging(ctx)

	outbox := eventadapter.NewOutboxWorker(r.logger, r.outbox, publisher, r.cfg.OutboxPollInterval, r.cfg.OutboxBatchSize)
	orders := eventadapter.NewConsumerWorker(r.logger, consumer, r.service, r.cfg.ConsumerPollInterval)
	scheduler, err := eventadapter.NewMonthCloseScheduler(r.logger, r.service, r.cfg.MonthCloseSpec, "month-close")
	if err != nil {
		closeKafka()
		return nil, err
	}

	g.Go(func() error { return ignoreCanceled(outbox.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(orders.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(scheduler.Run(ctx)) })

	r.logger.InfoContext(ctx, "workers started", "next_month_close", scheduler.Next(time.Now().UTC()))
	return closeKafka, nil
}

// messaging picks Kafka when brokers are configured and falls back to the logging
// publisher and the noop consumer otherwise.
func (r *Runtime) messaging(ctx context.Context) (ports.EventPublisher, eventadapter.Consumer, func()) {
	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(r.logger)
	var consumer eventadapter.Consumer = eventadapter.NewNoopConsumer()
	var closers []func() error
	if len(r.cfg.KafkaBrokers) == 0 {
		return publisher, consumer, func() {}
	}

	kafkaPublisher, err := eventadapter.NewKafkaPublisher(r.cfg.KafkaBrokers, r.topicByEvent())
	if err != nil {
		r.logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", err)
	} else {
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher.Close)
	}
	kafkaConsumer, err := eventadapter.NewKafkaConsumer(r.cfg.KafkaBrokers, r.cfg.KafkaConsumerGroup, []string{r.cfg.KafkaTopicOrders})
	if err != nil {
		r.logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", err)
	} else {
		consumer = kafkaConsumer
		closers = append(closers, kafkaConsumer.Close)
	}
	return publisher, consumer, func() {
		for _, c := range closers {
			_ = c()
		}
	}
}

func (r *Runtime) topicByEvent() map[string]string {
	portal := []string{
		domain.EventPartnerCreated,
		domain.EventPartnerStatusChanged,
		domain.EventLeadCreated,
		domain.EventLeadStatusChanged,
		domain.EventLeadReassigned,
		domain.EventKitDistributed,
		domain.EventSaleRecorded,
		domain.EventSaleCancelled,
		domain.EventTicketCreated,
		domain.EventTicketReplied,
		domain.EventTicketStatusChanged,
	}
	topics := make(map[string]string, len(portal)+1)
	for _, eventType := range portal {
		topics[eventType] = r.cfg.KafkaTopicPortal
	}
	topics[domain.EventCommissionMonthClosed] = r.cfg.KafkaTopicCommissions
	return topics
}

// Close releases storage and cache connections. It is safe to call more than once.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
	r.closers = nil
}

func ignoreCanceled(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
