package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/pollexec/go-poll-executor/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// PollDurationBuckets for the poll duration histogram. Defaults to
	// prometheus.DefBuckets.
	PollDurationBuckets []float64

	// FireLagBuckets for the timer fire lag histogram. Defaults to
	// sub-millisecond-to-seconds buckets.
	FireLagBuckets []float64

	// BatchSizeBuckets for the ready-batch size histogram. Defaults to
	// small exponential buckets.
	BatchSizeBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	spawnTotal          prom.Counter
	wakeTotal           prom.Counter
	pollPanicTotal      prom.Counter
	timerRegisterTotal  prom.Counter
	pollDurationSeconds *prom.HistogramVec
	fireLagSeconds      prom.Histogram
	batchSize           prom.Histogram
	liveTasks           prom.Gauge
	pendingDeadlines    prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "pollexec"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	pollBuckets := opts.PollDurationBuckets
	if len(pollBuckets) == 0 {
		pollBuckets = prom.DefBuckets
	}
	lagBuckets := opts.FireLagBuckets
	if len(lagBuckets) == 0 {
		lagBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	}
	batchBuckets := opts.BatchSizeBuckets
	if len(batchBuckets) == 0 {
		batchBuckets = []float64{0, 1, 2, 4, 8, 16, 32, 64, 128}
	}

	spawnTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_spawn_total",
		Help:      "Total number of spawned tasks.",
	})
	wakeTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "wake_total",
		Help:      "Total number of waker invocations.",
	})
	pollPanicTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "poll_panic_total",
		Help:      "Total number of panics recovered from task polls.",
	})
	timerRegisterTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "timer_registration_total",
		Help:      "Total number of accepted timer registrations.",
	})
	pollDurationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Task poll duration in seconds.",
		Buckets:   pollBuckets,
	}, []string{"status"})
	fireLagHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "timer_fire_lag_seconds",
		Help:      "How far behind its deadline a timer fire happened, in seconds.",
		Buckets:   lagBuckets,
	})
	batchHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "ready_batch_size",
		Help:      "Size of each drained ready-set snapshot.",
		Buckets:   batchBuckets,
	})
	liveTasksGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_tasks",
		Help:      "Current number of tasks in the executor registry.",
	})
	pendingGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "timer_pending_deadlines",
		Help:      "Current number of pending timer deadlines.",
	})

	var err error
	if spawnTotal, err = registerCollector(reg, spawnTotal); err != nil {
		return nil, err
	}
	if wakeTotal, err = registerCollector(reg, wakeTotal); err != nil {
		return nil, err
	}
	if pollPanicTotal, err = registerCollector(reg, pollPanicTotal); err != nil {
		return nil, err
	}
	if timerRegisterTotal, err = registerCollector(reg, timerRegisterTotal); err != nil {
		return nil, err
	}
	if pollDurationVec, err = registerCollector(reg, pollDurationVec); err != nil {
		return nil, err
	}
	if fireLagHist, err = registerCollector(reg, fireLagHist); err != nil {
		return nil, err
	}
	if batchHist, err = registerCollector(reg, batchHist); err != nil {
		return nil, err
	}
	if liveTasksGauge, err = registerCollector(reg, liveTasksGauge); err != nil {
		return nil, err
	}
	if pendingGauge, err = registerCollector(reg, pendingGauge); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		spawnTotal:          spawnTotal,
		wakeTotal:           wakeTotal,
		pollPanicTotal:      pollPanicTotal,
		timerRegisterTotal:  timerRegisterTotal,
		pollDurationSeconds: pollDurationVec,
		fireLagSeconds:      fireLagHist,
		batchSize:           batchHist,
		liveTasks:           liveTasksGauge,
		pendingDeadlines:    pendingGauge,
	}, nil
}

// RecordSpawn records a spawned task.
func (m *MetricsExporter) RecordSpawn() {
	if m == nil {
		return
	}
	m.spawnTotal.Inc()
}

// RecordPoll records one completed poll.
func (m *MetricsExporter) RecordPoll(status core.Status, duration time.Duration) {
	if m == nil {
		return
	}
	m.pollDurationSeconds.WithLabelValues(statusLabel(status)).Observe(duration.Seconds())
}

// RecordPollPanic records a panic recovered from a task poll.
func (m *MetricsExporter) RecordPollPanic() {
	if m == nil {
		return
	}
	m.pollPanicTotal.Inc()
}

// RecordWake records a waker invocation.
func (m *MetricsExporter) RecordWake() {
	if m == nil {
		return
	}
	m.wakeTotal.Inc()
}

// RecordBatch records the size of one drained ready-set snapshot.
func (m *MetricsExporter) RecordBatch(size int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}

// RecordLiveTasks records the current registry size.
func (m *MetricsExporter) RecordLiveTasks(count int) {
	if m == nil {
		return
	}
	m.liveTasks.Set(float64(count))
}

// RecordTimerRegister records an accepted timer registration.
func (m *MetricsExporter) RecordTimerRegister() {
	if m == nil {
		return
	}
	m.timerRegisterTotal.Inc()
}

// RecordTimerFire records a fired deadline and its lag.
func (m *MetricsExporter) RecordTimerFire(lag time.Duration) {
	if m == nil {
		return
	}
	m.fireLagSeconds.Observe(lag.Seconds())
}

// RecordPendingTimers records the current number of pending deadlines.
func (m *MetricsExporter) RecordPendingTimers(count int) {
	if m == nil {
		return
	}
	m.pendingDeadlines.Set(float64(count))
}

func statusLabel(status core.Status) string {
	switch status {
	case core.Pending:
		return "pending"
	case core.Done:
		return "done"
	default:
		return "unknown"
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
