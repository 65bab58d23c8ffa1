package slam

import (
	"context"

	"github.com/edaniels/golog"

	"github.com/stereovo/frontend/utils"
)

// Backend consumes map updates from the frontend. The frontend never blocks
// on it: UpdateMap only has to accept the notification, not finish acting
// on it before returning.
type Backend interface {
	// UpdateMap notifies the backend that the map changed. It must not block.
	UpdateMap()
	// Close stops any background work the backend started.
	Close()
}

// NoopBackend discards every update, useful for tests and for running the
// frontend without bundle adjustment.
type NoopBackend struct{}

// UpdateMap implements Backend.
func (NoopBackend) UpdateMap() {}

// Close implements Backend.
func (NoopBackend) Close() {}

// WorkerBackend runs map optimization on a background goroutine: the
// frontend's UpdateMap just drops a signal on a buffered channel, and a
// worker drains it asynchronously, detaching the producer from the
// consumer.
type WorkerBackend struct {
	workers utils.StoppableWorkers
	signal  chan struct{}
	logger  golog.Logger
}

// NewWorkerBackend starts a background optimization loop driven by the
// given Map. optimize is called with the map's current snapshot every time
// UpdateMap has been called at least once since the last optimize call.
func NewWorkerBackend(m *Map, optimize func(Snapshot), logger golog.Logger) *WorkerBackend {
	b := &WorkerBackend{
		signal: make(chan struct{}, 1),
		logger: logger,
	}
	b.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.signal:
				optimize(m.Snapshot())
			}
		}
	})
	return b
}

// UpdateMap implements Backend. The signal channel has capacity 1, so a
// burst of updates while the worker is busy collapses into a single pending
// optimization pass rather than queuing unboundedly.
func (b *WorkerBackend) UpdateMap() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Close implements Backend.
func (b *WorkerBackend) Close() {
	b.workers.Stop()
}
