package job

import (
	"sync"
	"time"
)

// State is the live progress of a render that has not finished yet.
type State int

const (
	StateQueued State = iota
	StateRendering
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRendering:
		return "rendering"
	case StateUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// LiveStatus is what the tracker knows about an in-flight render.
type LiveStatus struct {
	State   State
	Mode    string
	Started time.Time
}

// tracker holds in-flight renders only; finished ones live in the records
// store.
type tracker struct {
	mu     sync.RWMutex
	states map[string]LiveStatus
}

func newTracker() *tracker {
	return &tracker{states: make(map[string]LiveStatus)}
}

// begin registers id and reports false if it is already in flight.
func (t *tracker) begin(id, mode string, state State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.states[id]; exists {
		return false
	}
	t.states[id] = LiveStatus{State: state, Mode: mode, Started: time.Now()}
	return true
}

// advance moves id to state. Unknown ids are ignored, so a render that
// outlives its caller cannot resurrect a finished entry.
func (t *tracker) advance(id string, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, exists := t.states[id]; exists {
		s.State = state
		t.states[id] = s
	}
}

func (t *tracker) finish(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}

func (t *tracker) get(id string) (LiveStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, exists := t.states[id]
	return s, exists
}

func (t *tracker) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}
