// Package scheduler runs the recurring billing batch: every non-cancelled
// subscription whose next period end is within the plan's billing lead time
// gets extended by one period. An external cron may call RunOnce directly;
// self-hosted deployments use the RunForever loop.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/fakturo/internal/actor"
	catalogdomain "github.com/fakturo/fakturo/internal/catalog/domain"
	"github.com/fakturo/fakturo/internal/clock"
	"github.com/fakturo/fakturo/internal/metrics"
	"github.com/fakturo/fakturo/internal/recurrence"
	"github.com/fakturo/fakturo/internal/runlock"
	subscriptiondomain "github.com/fakturo/fakturo/internal/subscription/domain"
	"github.com/fakturo/fakturo/pkg/repository"
)

const runLockKey = "fakturo:scheduler:billing_run"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	SubscriptionSvc  subscriptiondomain.Service
	SubscriptionRepo subscriptiondomain.Repository
	Clock            clock.Clock
	Locker           *runlock.Locker `optional:"true"`
	Config           Config          `optional:"true"`
}

type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	locker    *runlock.Locker
	subSvc    subscriptiondomain.Service
	subRepo   subscriptiondomain.Repository
	planstore repository.Repository[catalogdomain.BillingPlan]
	recorder  *metrics.SchedulerRecorder
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.SubscriptionSvc == nil || p.SubscriptionRepo == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:        p.DB,
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		locker:    p.Locker,
		subSvc:    p.SubscriptionSvc,
		subRepo:   p.SubscriptionRepo,
		planstore: repository.ProvideStore[catalogdomain.BillingPlan](p.DB),
		recorder:  metrics.Scheduler(),
	}, nil
}

// RunOnce executes one billing batch. Failures are isolated per
// subscription: a single bad subscription is logged and counted but never
// blocks billing for the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	s.recorder.IncRun()
	defer func() {
		s.recorder.ObserveRunDuration(time.Since(start))
	}()

	token, ok, err := s.locker.TryLock(ctx, runLockKey, s.cfg.LockTTL)
	if err != nil {
		s.recorder.IncRunError()
		return err
	}
	if !ok {
		s.log.Info("billing run already in flight, skipping")
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), runLockKey, token); err != nil {
			s.log.Warn("run lock release failed", zap.Error(err))
		}
	}()

	subscriptions, err := s.subRepo.ListNotCancelled(ctx, s.db)
	if err != nil {
		s.recorder.IncRunError()
		return err
	}

	today := s.clock.Now()
	s.log.Info("billing run started", zap.Int("candidates", len(subscriptions)))

	for i := range subscriptions {
		s.processSubscription(ctx, &subscriptions[i], today)
	}

	s.log.Info("billing run finished", zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Scheduler) processSubscription(ctx context.Context, sub *subscriptiondomain.Subscription, today time.Time) {
	log := s.log.With(zap.String("subscription_id", sub.ID.String()))

	due, err := s.isDue(ctx, sub, today)
	if err != nil {
		s.recorder.IncSubscriptionError()
		log.Error("due check failed", zap.Error(err))
		return
	}
	if !due {
		return
	}

	s.recorder.IncSubscriptionDue()
	if _, err := s.subSvc.Extend(ctx, sub.ID, actor.System()); err != nil {
		if errors.Is(err, subscriptiondomain.ErrSubscriptionCancelled) {
			// cancelled between listing and locking; nothing to do
			log.Info("subscription cancelled mid-run, skipped")
			return
		}
		s.recorder.IncSubscriptionError()
		log.Error("subscription extension failed", zap.Error(err))
		return
	}
	log.Info("subscription extended")
}

// isDue reports whether the subscription's next period end falls within the
// plan's billing lead time.
func (s *Scheduler) isDue(ctx context.Context, sub *subscriptiondomain.Subscription, today time.Time) (bool, error) {
	plan, err := s.planstore.FindOne(ctx, &catalogdomain.BillingPlan{ID: sub.PlanID})
	if err != nil {
		return false, err
	}
	if plan == nil {
		return false, errors.New("billing plan not found")
	}

	unit, err := recurrence.ParseUnit(plan.Recurrence)
	if err != nil {
		return false, err
	}
	nextEnd, err := recurrence.NextEndBilledDate(sub.StartDate, sub.EndBilledDate, unit)
	if err != nil {
		return false, err
	}
	return recurrence.DaysUntil(today, nextEnd) <= plan.BillDaysBeforeEnd, nil
}

// RunForever drives RunOnce on the configured interval until ctx is done.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("billing run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
