package frametick

import (
	"testing"
	"time"
)

func TestTickerDeliversTicks(t *testing.T) {
	tk := New(func() (time.Duration, bool) {
		return 2 * time.Millisecond, true
	})
	tk.Start()
	defer tk.Stop()

	select {
	case tick := <-tk.C():
		if tick.Period != 2*time.Millisecond {
			t.Fatalf("tick period = %v, want 2ms", tick.Period)
		}
		if tick.HostTime.IsZero() {
			t.Fatal("tick has zero host time")
		}
	case <-time.After(time.Second):
		t.Fatal("no tick within deadline")
	}
}

func TestTickerFallsBackTo60Hz(t *testing.T) {
	tk := New(func() (time.Duration, bool) {
		return 0, false
	})
	if got := tk.period(); got != defaultPeriod {
		t.Fatalf("period = %v, want %v", got, defaultPeriod)
	}
}

func TestTickerPrefersLastKnownPeriod(t *testing.T) {
	available := true
	tk := New(func() (time.Duration, bool) {
		if available {
			return 4 * time.Millisecond, true
		}
		return 0, false
	})

	if got := tk.period(); got != 4*time.Millisecond {
		t.Fatalf("period = %v, want 4ms", got)
	}
	available = false
	if got := tk.period(); got != 4*time.Millisecond {
		t.Fatalf("period after source loss = %v, want cached 4ms", got)
	}
}

func TestTickerStartStopIdempotent(t *testing.T) {
	tk := New(nil)
	tk.Start()
	tk.Start()
	tk.Stop()
	tk.Stop()

	// Restart after stop must work.
	tk.Start()
	tk.Stop()
}
