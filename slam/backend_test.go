package slam

import (
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
)

func TestNoopBackendDoesNothing(t *testing.T) {
	var b NoopBackend
	b.UpdateMap()
	b.Close()
}

func TestWorkerBackendRunsOptimizeOnUpdate(t *testing.T) {
	m := NewMap()
	done := make(chan struct{}, 1)
	backend := NewWorkerBackend(m, func(Snapshot) {
		select {
		case done <- struct{}{}:
		default:
		}
	}, golog.NewTestLogger(t))
	defer backend.Close()

	backend.UpdateMap()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("optimize was not called after UpdateMap")
	}
}

func TestWorkerBackendUpdateMapIsNonBlocking(t *testing.T) {
	m := NewMap()
	backend := NewWorkerBackend(m, func(Snapshot) { time.Sleep(50 * time.Millisecond) }, golog.NewTestLogger(t))
	defer backend.Close()

	start := time.Now()
	for i := 0; i < 10; i++ {
		backend.UpdateMap()
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
