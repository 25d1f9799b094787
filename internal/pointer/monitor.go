// Package pointer turns the backend's polled pointer state into
// press, drag and release events for the engine's interaction boost.
package pointer

import (
	"time"

	"github.com/softveil/softveil/internal/platform"
)

// pollInterval is how often the backend pointer state is sampled. The
// press edge only needs to be caught within one engine reaction, not at
// frame rate.
const pollInterval = 40 * time.Millisecond

// EventKind classifies a pointer transition.
type EventKind int

const (
	// Down fires on the unpressed to pressed edge.
	Down EventKind = iota
	// Drag fires while pressed when the position moved.
	Drag
	// Up fires on the pressed to unpressed edge.
	Up
)

func (k EventKind) String() string {
	switch k {
	case Down:
		return "down"
	case Drag:
		return "drag"
	case Up:
		return "up"
	}
	return "unknown"
}

// Event is one pointer transition.
type Event struct {
	Kind EventKind
	X, Y float64
}

// Monitor polls the backend pointer and emits transition events.
type Monitor struct {
	backend platform.Backend
	out     chan Event
	stop    chan struct{}
	running bool
}

// NewMonitor creates a stopped monitor over the backend.
func NewMonitor(backend platform.Backend) *Monitor {
	return &Monitor{
		backend: backend,
		out:     make(chan Event, 4),
	}
}

// C returns the event channel. Events are dropped when the receiver
// lags; the engine only cares about the most recent transitions.
func (m *Monitor) C() <-chan Event {
	return m.out
}

// Start begins polling. Idempotent.
func (m *Monitor) Start() {
	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	go m.run(m.stop)
}

// Stop halts polling. Idempotent.
func (m *Monitor) Stop() {
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

func (m *Monitor) run(stop <-chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var prev platform.PointerState
	havePrev := false

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			state, err := m.backend.PointerState()
			if err != nil {
				continue
			}
			if havePrev {
				if ev, ok := transition(prev, state); ok {
					m.emit(ev)
				}
			}
			prev = state
			havePrev = true
		}
	}
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.out <- ev:
	default:
	}
}

// transition derives the event, if any, between two samples.
func transition(prev, cur platform.PointerState) (Event, bool) {
	switch {
	case cur.Pressed && !prev.Pressed:
		return Event{Kind: Down, X: cur.X, Y: cur.Y}, true
	case !cur.Pressed && prev.Pressed:
		return Event{Kind: Up, X: cur.X, Y: cur.Y}, true
	case cur.Pressed && (cur.X != prev.X || cur.Y != prev.Y):
		return Event{Kind: Drag, X: cur.X, Y: cur.Y}, true
	}
	return Event{}, false
}
