package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/nel3/internal/clock"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	obscontext "github.com/smallbiznis/nel3/internal/observability/context"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/nel3/internal/observability/metrics"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

const (
	JobAutoMatch  = "reconciliation_auto_match"
	JobLimitAlert = "limit_usage_alert"
)

type Params struct {
	fx.In

	Log               *zap.Logger
	Clock             clock.Clock
	GenID             *snowflake.Node
	ReconciliationSvc reconciliationdomain.Service
	PartnerSvc        partnerdomain.Service
	Ledger            limitdomain.Ledger
	Emitter           notificationdomain.Emitter
	Metrics           *obsmetrics.SchedulerMetrics `optional:"true"`
	Locker            *ratelimit.Locker            `optional:"true"`
	Config            Config                       `optional:"true"`
}

// Scheduler runs periodic maintenance jobs against the services.
type Scheduler struct {
	log               *zap.Logger
	cfg               Config
	clock             clock.Clock
	genID             *snowflake.Node
	reconciliationSvc reconciliationdomain.Service
	partnerSvc        partnerdomain.Service
	ledger            limitdomain.Ledger
	emitter           notificationdomain.Emitter
	metrics           *obsmetrics.SchedulerMetrics
	locker            *ratelimit.Locker

	mu sync.Mutex
	// alerted maps partner id to the bucket it was last warned in.
	alerted map[string]string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.GenID == nil || p.ReconciliationSvc == nil || p.PartnerSvc == nil || p.Ledger == nil || p.Emitter == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:               p.Log.Named("scheduler"),
		cfg:               p.Config.withDefaults(),
		clock:             p.Clock,
		genID:             p.GenID,
		reconciliationSvc: p.ReconciliationSvc,
		partnerSvc:        p.PartnerSvc,
		ledger:            p.Ledger,
		emitter:           p.Emitter,
		metrics:           p.Metrics,
		locker:            p.Locker,
		alerted:           map[string]string{},
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	log := obslogger.WithContext(ctx, s.log).With(
		zap.String("job", name),
		zap.String("run_id", s.genID.Generate().String()),
	)

	// With a shared backend only the instance holding the lease runs the job.
	if s.locker != nil {
		key := "scheduler:" + name
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.JobTimeout)
		if err != nil {
			log.Warn("scheduler.job.lock_failed", zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("scheduler.job.skipped", zap.String("reason", "lease held elsewhere"))
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("scheduler.job.unlock_failed", zap.Error(err))
			}
		}()
	}
	log.Debug("scheduler.job.start")

	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.ObserveJob(name, elapsed, err)
	if err == nil {
		log.Debug("scheduler.job.finish", zap.Duration("duration", elapsed))
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", s.cfg.JobTimeout), zap.Error(err))
		return nil
	}
	log.Error("scheduler.job.failed", zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every job once and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobAutoMatch, s.AutoMatchJob},
		{JobLimitAlert, s.LimitAlertJob},
	}

	var err error
	for _, job := range jobs {
		err = errors.Join(err, s.runJob(ctx, job.Name, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
