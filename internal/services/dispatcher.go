package services

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var (
	sideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_side_effects_total",
			Help: "Background side effects by task and outcome",
		},
		[]string{"task", "result"},
	)

	sideEffectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_side_effect_duration_seconds",
			Help:    "Background side effect duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultPanic   = "panic"
	resultDropped = "dropped"
)

type sideEffect struct {
	name string
	fn   func(ctx context.Context) error
}

// Dispatcher runs best-effort side effects (emails, search-engine pings,
// rating cache write-backs) on a fixed pool of workers. Submit never blocks:
// when the queue is full the task is dropped and logged.
type Dispatcher struct {
	queue   chan sideEffect
	timeout time.Duration
	log     logrus.FieldLogger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers, queueSize int, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	d := &Dispatcher{
		queue:   make(chan sideEffect, queueSize),
		timeout: timeout,
		log:     log,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Submit enqueues fn under name and reports whether it was accepted.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(name, "dispatcher closed")
		return false
	}

	select {
	case d.queue <- sideEffect{name: name, fn: fn}:
		return true
	default:
		d.drop(name, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(name, reason string) {
	sideEffectsTotal.WithLabelValues(name, resultDropped).Inc()
	d.log.WithFields(logrus.Fields{"task": name, "reason": reason}).Warn("side effect dropped")
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(task)
	}
}

func (d *Dispatcher) run(task sideEffect) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	entry := d.log.WithField("task", task.name)
	defer func() {
		sideEffectDuration.WithLabelValues(task.name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			sideEffectsTotal.WithLabelValues(task.name, resultPanic).Inc()
			entry.WithField("panic", r).Error("side effect panicked")
		}
	}()

	if err := task.fn(ctx); err != nil {
		sideEffectsTotal.WithLabelValues(task.name, resultFailed).Inc()
		entry.WithError(err).Warn("side effect failed")
		return
	}
	sideEffectsTotal.WithLabelValues(task.name, resultOK).Inc()
	entry.Debug("side effect completed")
}

// Close stops accepting work and waits for queued tasks to finish or for ctx
// to expire, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
