package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

// DefaultMonthCloseSpec runs shortly after midnight UTC on the first of every month.
const DefaultMonthCloseSpec = "5 0 1 * *"

type MonthCloser interface {
	CloseMonth(ctx context.Context, actor application.Actor, period string) (application.CloseMonthResult, error)
}

// MonthCloseScheduler snapshots the previous month's commission on a cron schedule.
type MonthCloseScheduler struct {
	logger   *slog.Logger
	closer   MonthCloser
	spec     string
	actorID  string
	timeout  time.Duration
	nowFn    func() time.Time
	schedule cron.Schedule
}

func NewMonthCloseScheduler(logger *slog.Logger, closer MonthCloser, spec, actorID string) (*MonthCloseScheduler, error) {
	if spec == "" {
		spec = DefaultMonthCloseSpec
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse month close schedule %q: %w", spec, err)
	}
	if actorID == "" {
		actorID = "month-close"
	}
	return &MonthCloseScheduler{
		logger:   logger,
		closer:   closer,
		spec:     spec,
		actorID:  actorID,
		timeout:  5 * time.Minute,
		nowFn:    func() time.Time { return time.Now().UTC() },
		schedule: schedule,
	}, nil
}

// Next reports when the job fires after t.
func (s *MonthCloseScheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s *MonthCloseScheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.CloseOnce(ctx)
	}))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// CloseOnce closes the month before the current one.
func (s *MonthCloseScheduler) CloseOnce(ctx context.Context) (application.CloseMonthResult, error) {
	period := domain.PeriodOf(s.nowFn()).Prev().String()
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	actor := application.Actor{
		SubjectID: s.actorID,
		Role:      application.RoleSystem,
		RequestID: "month-close-" + period,
	}
	result, err := s.closer.CloseMonth(runCtx, actor, period)
	if err != nil {
		s.logger.ErrorContext(ctx, "month close failed",
			"module", "events.month_close",
			"layer", "adapter",
			"operation", "close_month",
			"outcome", "failure",
			"period", period,
			"error", err,
		)
		return result, err
	}
	s.logger.InfoContext(ctx, "month closed",
		"module", "events.month_close",
		"layer", "adapter",
		"operation", "close_month",
		"outcome", "success",
		"period", period,
		"created", result.Created,
		"existing", result.Existing,
	)
	return result, nil
}
