// Package sched provides a workchain.Runner implementation: a worker pool
// that dispatches CallSoon continuations and fires CallOnProcessFinish
// callbacks exactly once per process, adapted from the teacher's
// runConcurrent worker loop (graph/engine.go) and Frontier scheduler
// (graph/scheduler.go).
package sched

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Scheduler is a bounded worker pool Runner. CallSoon continuations are
// queued and executed by one of a fixed number of worker goroutines;
// CallOnProcessFinish registrations are held until Finish(pk) is called,
// at which point every registered callback fires exactly once, even if
// Finish is invoked more than once for the same pk (the teacher's
// completionDetected CompareAndSwap pattern, applied per-pk rather than
// per-run).
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	work   chan func()
	wg     sync.WaitGroup

	mu        sync.Mutex
	callbacks map[string][]func()
	finished  map[string]bool

	tracer trace.Tracer
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithTracer attaches an OpenTelemetry tracer for dispatched work.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

const defaultWorkers = 8

// New starts a Scheduler with the given number of worker goroutines
// (defaultWorkers if workers <= 0). Call Close when done to stop the
// pool.
func New(workers int, opts ...Option) *Scheduler {
	if workers <= 0 {
		workers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		work:      make(chan func(), workers*4),
		callbacks: make(map[string][]func()),
		finished:  make(map[string]bool),
		tracer:    trace.NewNoopTracerProvider().Tracer("workchain/sched"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn, ok := <-s.work:
			if !ok {
				return
			}
			s.run(fn)
		}
	}
}

func (s *Scheduler) run(fn func()) {
	_, span := s.tracer.Start(s.ctx, "sched.run")
	defer span.End()
	fn()
}

// CallSoon implements workchain.Runner by enqueueing fn for dispatch on
// the worker pool.
func (s *Scheduler) CallSoon(fn func()) {
	select {
	case s.work <- fn:
	case <-s.ctx.Done():
	}
}

// CallOnProcessFinish implements workchain.Runner. If pk is already
// finished, callback is dispatched immediately via CallSoon rather than
// silently dropped.
func (s *Scheduler) CallOnProcessFinish(pk string, callback func()) {
	s.mu.Lock()
	if s.finished[pk] {
		s.mu.Unlock()
		s.CallSoon(callback)
		return
	}
	s.callbacks[pk] = append(s.callbacks[pk], callback)
	s.mu.Unlock()
}

// Finish marks pk as terminal and dispatches every callback registered
// for it exactly once. Calling Finish more than once for the same pk is
// safe: the second call is a no-op for callback dispatch, matching the
// source system's "finish notifications are idempotent" expectation.
func (s *Scheduler) Finish(pk string) {
	s.mu.Lock()
	if s.finished[pk] {
		s.mu.Unlock()
		return
	}
	s.finished[pk] = true
	pending := s.callbacks[pk]
	delete(s.callbacks, pk)
	s.mu.Unlock()

	for _, cb := range pending {
		cb := cb
		s.CallSoon(cb)
	}
}

// Close stops the worker pool. Pending CallSoon work is abandoned; this
// mirrors the teacher's workerCtx cancellation on shutdown.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}
