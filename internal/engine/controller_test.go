package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/peripheral"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/pointer"
	"github.com/softveil/softveil/internal/resolver"
	"github.com/softveil/softveil/internal/snapshot"
)

type fakeBackend struct {
	displays []platform.Display
	windows  []platform.WindowInfo
	frames   map[platform.WindowID]geometry.Rect
	frontPID int
	listed   int
}

func (f *fakeBackend) Displays() ([]platform.Display, error) { return f.displays, nil }

func (f *fakeBackend) ListWindows(limit int) ([]platform.WindowInfo, error) {
	f.listed++
	if limit > 0 && limit < len(f.windows) {
		return f.windows[:limit], nil
	}
	return f.windows, nil
}

func (f *fakeBackend) WindowFrame(id platform.WindowID) (geometry.Rect, bool) {
	r, ok := f.frames[id]
	return r, ok
}

func (f *fakeBackend) FrontmostPID() (int, bool) { return f.frontPID, f.frontPID != 0 }

func (f *fakeBackend) PointerState() (platform.PointerState, error) {
	return platform.PointerState{}, nil
}

type fakeSink struct {
	applied map[platform.DisplayID][]Mask
	cleared map[platform.DisplayID]int
	failing map[platform.DisplayID]int
	synced  int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		applied: make(map[platform.DisplayID][]Mask),
		cleared: make(map[platform.DisplayID]int),
		failing: make(map[platform.DisplayID]int),
	}
}

func (s *fakeSink) SyncDisplays([]platform.Display) error { s.synced++; return nil }

func (s *fakeSink) ApplyMasks(d platform.DisplayID, masks []Mask) error {
	if s.failing[d] > 0 {
		s.failing[d]--
		return errors.New("no content surface")
	}
	s.applied[d] = masks
	return nil
}

func (s *fakeSink) ClearMasks(d platform.DisplayID) error {
	s.cleared[d]++
	delete(s.applied, d)
	return nil
}

func (s *fakeSink) WindowIDs() map[platform.WindowID]bool { return nil }

func display(id int, bounds geometry.Rect) platform.Display {
	return platform.Display{
		ID:            platform.DisplayID(id),
		Name:          "fake",
		Bounds:        bounds,
		RefreshPeriod: time.Second / 60,
	}
}

func appWindow(id platform.WindowID, pid int, frame geometry.Rect) platform.WindowInfo {
	return platform.WindowInfo{
		ID: id, PID: pid, OwnerName: "Editor", Title: "Editor",
		Layer: platform.LayerNormal, Alpha: 1, Bounds: frame,
	}
}

// newTestController wires a controller around fakes and primes its
// topology, without starting the loop goroutine.
func newTestController(backend *fakeBackend, sink *fakeSink, cfg *config.Config) *Controller {
	if cfg == nil {
		cfg = config.Default()
	}
	c := NewController(Options{
		Backend: backend,
		Adapter: nil,
		Sink:    sink,
		Config:  cfg,
		Caps:    resolver.Caps(resolver.GenerationModern),
		OwnPID:  999,
	})
	c.state = StatePolling
	c.refreshTopology()
	return c
}

func TestResolveSingleWindowMasksDisplay(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
		windows:  []platform.WindowInfo{appWindow(1, 10, frame)},
		frontPID: 10,
	}
	sink := newFakeSink()
	cfg := config.Default()
	cfg.Peripherals.ExcludeDock = false

	c := newTestController(backend, sink, cfg)
	c.resolveFull()

	masks := sink.applied[1]
	if len(masks) != 1 {
		t.Fatalf("masks = %+v, want exactly one", masks)
	}
	want := frame.Outset(marginWindow)
	if !masks[0].Frame.ApproxEqual(want, snapshot.Tolerance) {
		t.Fatalf("mask frame = %+v, want %+v", masks[0].Frame, want)
	}
	if masks[0].CornerRadius != resolver.Caps(resolver.GenerationModern).WindowRadius {
		t.Fatalf("mask radius = %v", masks[0].CornerRadius)
	}
}

func TestIdenticalInputsYieldIdenticalMasks(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
		windows: []platform.WindowInfo{
			appWindow(1, 10, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}),
			appWindow(2, 10, geometry.Rect{X: 950, Y: 100, Width: 400, Height: 300}),
		},
		frontPID: 10,
	}
	sink := newFakeSink()
	cfg := config.Default()
	cfg.MaskScope = config.ScopeApplication

	c := newTestController(backend, sink, cfg)
	c.resolveFull()
	first := append([]Mask(nil), sink.applied[1]...)

	for i := 0; i < 5; i++ {
		c.stepPoll(time.Now())
	}

	again := sink.applied[1]
	if len(again) != len(first) {
		t.Fatalf("mask count changed: %d -> %d", len(first), len(again))
	}
	for i := range first {
		if !again[i].Frame.ApproxEqual(first[i].Frame, snapshot.Tolerance) {
			t.Fatalf("mask %d drifted: %+v -> %+v", i, first[i].Frame, again[i].Frame)
		}
	}
}

func TestPointerDownEntersBoostImmediately(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
	}
	c := newTestController(backend, newFakeSink(), nil)

	if c.interval() != c.baseInterval {
		t.Fatalf("interval = %v, want base %v", c.interval(), c.baseInterval)
	}

	entered := c.handlePointer(pointer.Event{Kind: pointer.Down}, time.Now())
	if !entered {
		t.Fatal("pointer-down should enter boost")
	}
	if c.state != StateInteractionBoost {
		t.Fatalf("state = %v", c.state)
	}
	if c.interval() != c.boostInt {
		t.Fatalf("interval = %v, want boost %v", c.interval(), c.boostInt)
	}
	c.ticker.Stop()
}

func TestBoostDeadlineNeverShortens(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
	}
	c := newTestController(backend, newFakeSink(), nil)
	defer c.ticker.Stop()

	now := time.Now()
	c.handlePointer(pointer.Event{Kind: pointer.Down}, now)
	downDeadline := c.boostDeadline

	// A release shortly after must not pull the deadline in.
	c.handlePointer(pointer.Event{Kind: pointer.Up}, now.Add(10*time.Millisecond))
	if c.boostDeadline.Before(downDeadline) {
		t.Fatalf("deadline shortened: %v -> %v", downDeadline, c.boostDeadline)
	}

	// A drag later extends it.
	c.handlePointer(pointer.Event{Kind: pointer.Drag}, now.Add(time.Second))
	if !c.boostDeadline.After(downDeadline) {
		t.Fatal("drag did not extend the deadline")
	}
}

func TestBoostExpiryReturnsToPolling(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
	}
	c := newTestController(backend, newFakeSink(), nil)

	now := time.Now()
	c.handlePointer(pointer.Event{Kind: pointer.Down}, now)
	c.stepPoll(now.Add(boostHold + time.Second))

	if c.state != StatePolling {
		t.Fatalf("state = %v, want polling after deadline", c.state)
	}
	if c.interval() != c.baseInterval {
		t.Fatalf("interval = %v, want base", c.interval())
	}
}

func TestFastPathPatchesPrimaryFrame(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
		windows:  []platform.WindowInfo{appWindow(1, 10, frame)},
		frames:   map[platform.WindowID]geometry.Rect{1: frame},
		frontPID: 10,
	}
	sink := newFakeSink()
	c := newTestController(backend, sink, nil)
	c.resolveFull()
	c.state = StateInteractionBoost
	c.boostDeadline = time.Now().Add(time.Hour)

	listedBefore := backend.listed

	// Within tolerance: nothing to do.
	c.stepFrame(time.Now())
	if backend.listed != listedBefore {
		t.Fatal("fast path must not re-enumerate windows")
	}

	// Moved: frame patched without a full pass.
	moved := frame.Offset(40, 25)
	backend.frames[1] = moved
	c.stepFrame(time.Now())
	if backend.listed != listedBefore {
		t.Fatal("frame patch must not re-enumerate windows")
	}
	if !c.global.Frame.ApproxEqual(moved, snapshot.Tolerance) {
		t.Fatalf("cached frame = %+v, want %+v", c.global.Frame, moved)
	}
	want := moved.Outset(marginWindow)
	if got := sink.applied[1]; len(got) == 0 || !got[0].Frame.ApproxEqual(want, snapshot.Tolerance) {
		t.Fatalf("applied masks = %+v, want frame %+v", got, want)
	}

	// No obtainable frame: must fall back to a full pass.
	delete(backend.frames, 1)
	c.stepFrame(time.Now())
	if backend.listed == listedBefore {
		t.Fatal("missing frame must trigger full resolution")
	}
}

func TestTopologyChangeDropsRemovedDisplayCache(t *testing.T) {
	d1 := display(1, geometry.Rect{Width: 1920, Height: 1080})
	d2 := display(2, geometry.Rect{X: 1920, Width: 1920, Height: 1080})
	backend := &fakeBackend{
		displays: []platform.Display{d1, d2},
		windows: []platform.WindowInfo{
			appWindow(1, 10, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}),
			appWindow(2, 10, geometry.Rect{X: 2000, Y: 100, Width: 800, Height: 600}),
		},
		frontPID: 10,
	}
	sink := newFakeSink()
	cfg := config.Default()
	cfg.MaskScope = config.ScopeApplication

	c := newTestController(backend, sink, cfg)
	c.resolveFull()
	if _, ok := c.perDisplay[2]; !ok {
		t.Fatal("second display should hold a cached snapshot")
	}

	c.applyTopology([]platform.Display{d1})

	if _, ok := c.perDisplay[2]; ok {
		t.Fatal("removed display cache not dropped")
	}
	if _, ok := c.perDisplay[1]; !ok {
		t.Fatal("retained display cache was lost")
	}
	if _, ok := c.Info().Masks[2]; ok {
		t.Fatal("removed display still published")
	}
}

func TestApplyFailureFallsBackToLastSnapshot(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
		windows:  []platform.WindowInfo{appWindow(1, 10, frame)},
		frontPID: 10,
	}
	sink := newFakeSink()
	cfg := config.Default()
	cfg.Peripherals.ExcludeDock = false

	c := newTestController(backend, sink, cfg)
	c.resolveFull()

	moved := frame.Offset(300, 0)
	backend.windows = []platform.WindowInfo{appWindow(1, 10, moved)}
	sink.failing[1] = 1

	c.resolveFull()

	// The fresh snapshot failed to apply; the previous one stayed up.
	got := sink.applied[1]
	if len(got) != 1 || !got[0].Frame.ApproxEqual(frame.Outset(marginWindow), snapshot.Tolerance) {
		t.Fatalf("fallback masks = %+v", got)
	}
	if sink.cleared[1] != 0 {
		t.Fatal("display should not have been cleared")
	}
}

func TestPeripheralCarveOutSurvivesEmptySnapshot(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
	}
	sink := newFakeSink()
	c := newTestController(backend, sink, nil)
	c.peripherals = []peripheral.Region{{
		Display:      1,
		Kind:         peripheral.KindDock,
		Edge:         peripheral.EdgeBottom,
		Frame:        geometry.Rect{X: 560, Y: 1020, Width: 800, Height: 60},
		CornerRadius: 8,
	}}

	c.applySnapshot(snapshot.Snapshot{})

	got := sink.applied[1]
	if len(got) != 1 {
		t.Fatalf("masks = %+v, want the dock carve-out alone", got)
	}
	if got[0].CornerRadius != 8 {
		t.Fatalf("carve-out radius = %v", got[0].CornerRadius)
	}
}

func TestShutdownClearsEverything(t *testing.T) {
	backend := &fakeBackend{
		displays: []platform.Display{display(1, geometry.Rect{Width: 1920, Height: 1080})},
		windows:  []platform.WindowInfo{appWindow(1, 10, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600})},
		frontPID: 10,
	}
	sink := newFakeSink()
	c := newTestController(backend, sink, nil)
	c.resolveFull()

	c.shutdown()

	if c.state != StateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	if len(sink.applied) != 0 {
		t.Fatalf("masks still applied: %+v", sink.applied)
	}
	if len(c.perDisplay) != 0 || !c.global.Empty() {
		t.Fatal("caches not cleared")
	}
	if c.Info().State != "idle" {
		t.Fatalf("published state = %q", c.Info().State)
	}
}
