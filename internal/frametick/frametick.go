// Package frametick paces callbacks to the active display's refresh
// signal. It is only engaged during interaction bursts; the rest of the
// time the engine polls at its profile interval.
package frametick

import (
	"time"
)

// defaultPeriod is used until a refresh measurement is available.
const defaultPeriod = time.Second / 60

// remeasureEvery controls how often the period source is re-consulted
// while ticking.
const remeasureEvery = 120

// Tick is one frame callback: the host timestamp and the refresh period
// in effect when it fired.
type Tick struct {
	HostTime time.Time
	Period   time.Duration
}

// PeriodSource supplies the measured refresh period of the active
// display. The bool is false when no measurement is available this tick.
type PeriodSource func() (time.Duration, bool)

// Ticker delivers frame-paced ticks on C while started. Start and Stop
// are idempotent and the ticker is safely restartable.
type Ticker struct {
	source     PeriodSource
	out        chan Tick
	stop       chan struct{}
	running    bool
	lastPeriod time.Duration
}

// New creates a stopped ticker over the period source.
func New(source PeriodSource) *Ticker {
	return &Ticker{
		source: source,
		out:    make(chan Tick, 1),
	}
}

// C returns the tick channel. Ticks are dropped, not queued, when the
// receiver lags.
func (t *Ticker) C() <-chan Tick {
	return t.out
}

// Start attaches to the refresh signal and begins delivering ticks.
func (t *Ticker) Start() {
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
}

// Stop detaches from the refresh signal.
func (t *Ticker) Stop() {
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
}

// period returns the current refresh period, falling back to the last
// known value and then the 60 Hz default.
func (t *Ticker) period() time.Duration {
	if t.source != nil {
		if p, ok := t.source(); ok && p > 0 {
			t.lastPeriod = p
			return p
		}
	}
	if t.lastPeriod > 0 {
		return t.lastPeriod
	}
	return defaultPeriod
}

func (t *Ticker) run(stop <-chan struct{}) {
	period := t.period()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			select {
			case t.out <- Tick{HostTime: now, Period: period}:
			default:
			}

			count++
			if count%remeasureEvery == 0 {
				if next := t.period(); next != period {
					period = next
					ticker.Reset(period)
				}
			}
		}
	}
}
