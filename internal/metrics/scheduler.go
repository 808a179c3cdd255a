// Package metrics exposes prometheus instrumentation for the billing
// scheduler.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type SchedulerRecorder struct {
	runs               prometheus.Counter
	runErrors          prometheus.Counter
	runDuration        prometheus.Histogram
	subscriptionsDue   prometheus.Counter
	subscriptionErrors prometheus.Counter
}

var (
	schedulerOnce sync.Once
	scheduler     *SchedulerRecorder
)

// Scheduler returns the process-wide scheduler recorder, registering the
// collectors on first use.
func Scheduler() *SchedulerRecorder {
	schedulerOnce.Do(func() {
		scheduler = newSchedulerRecorder(prometheus.DefaultRegisterer)
	})
	return scheduler
}

// NewSchedulerRecorder registers the scheduler collectors on the given
// registerer; tests pass their own registry.
func NewSchedulerRecorder(reg prometheus.Registerer) *SchedulerRecorder {
	return newSchedulerRecorder(reg)
}

func newSchedulerRecorder(reg prometheus.Registerer) *SchedulerRecorder {
	factory := promauto.With(reg)
	return &SchedulerRecorder{
		runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakturo_scheduler_runs_total",
			Help: "Billing batch runs started.",
		}),
		runErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakturo_scheduler_run_errors_total",
			Help: "Billing batch runs that failed before iterating subscriptions.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fakturo_scheduler_run_duration_seconds",
			Help:    "Billing batch run duration.",
			Buckets: prometheus.DefBuckets,
		}),
		subscriptionsDue: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakturo_scheduler_subscriptions_due_total",
			Help: "Subscriptions found due and extended.",
		}),
		subscriptionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakturo_scheduler_subscription_errors_total",
			Help: "Subscriptions whose extension failed; the run continues.",
		}),
	}
}

func (r *SchedulerRecorder) IncRun()               { r.runs.Inc() }
func (r *SchedulerRecorder) IncRunError()          { r.runErrors.Inc() }
func (r *SchedulerRecorder) IncSubscriptionDue()   { r.subscriptionsDue.Inc() }
func (r *SchedulerRecorder) IncSubscriptionError() { r.subscriptionErrors.Inc() }

func (r *SchedulerRecorder) ObserveRunDuration(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}
