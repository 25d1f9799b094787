// Package engine runs the active-region synchronization loop: it
// resolves what must stay visible, adapts its cadence to pointer
// activity and drives the mask sink per display.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/frametick"
	"github.com/softveil/softveil/internal/introspect"
	"github.com/softveil/softveil/internal/peripheral"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/pointer"
	"github.com/softveil/softveil/internal/resolver"
	"github.com/softveil/softveil/internal/snapshot"
)

// State is the controller's monitoring state.
type State int

const (
	// StateIdle means the loop is not running.
	StateIdle State = iota
	// StatePolling resolves at the profile's base interval.
	StatePolling
	// StateInteractionBoost resolves at the boost interval with
	// frame-paced fast-path sampling on top.
	StateInteractionBoost
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateInteractionBoost:
		return "interaction_boost"
	default:
		return "idle"
	}
}

const (
	// boostHold is how long a pointer-down or drag keeps the boost alive.
	boostHold = 1500 * time.Millisecond
	// boostCooldown follows a pointer-up, absorbing trailing movement.
	boostCooldown = 600 * time.Millisecond

	topologyInterval   = 2 * time.Second
	peripheralInterval = 5 * time.Second
)

// Options wires a controller.
type Options struct {
	Backend platform.Backend
	Adapter introspect.Adapter
	Sink    MaskSink
	Config  *config.Config
	Caps    resolver.Capabilities
	// Pointer feeds interaction signals. Nil disables the boost path.
	Pointer *pointer.Monitor
	OwnPID  int
	Log     *slog.Logger
}

// Info is the controller's published state, safe to read from any
// goroutine. Slices are fresh copies on every publish.
type Info struct {
	State       string                        `json:"state"`
	Profile     config.Profile                `json:"profile"`
	Displays    []platform.Display            `json:"displays"`
	Masks       map[platform.DisplayID][]Mask `json:"masks"`
	Peripherals []peripheral.Region           `json:"peripherals"`
	ActiveFrame snapshot.Snapshot             `json:"active"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// Controller owns all resolution state. A single goroutine runs the
// select loop; everything mutable below the publish boundary is touched
// only from that goroutine.
type Controller struct {
	backend  platform.Backend
	adapter  introspect.Adapter
	sink     MaskSink
	res      *resolver.Resolver
	detector *peripheral.Detector
	monitor  *pointer.Monitor
	ticker   *frametick.Ticker
	ownPID   int
	log      *slog.Logger

	cfg          *config.Config
	baseInterval time.Duration
	boostInt     time.Duration

	state         State
	boostDeadline time.Time
	displays      []platform.Display
	perDisplay    map[platform.DisplayID]snapshot.Snapshot
	masks         map[platform.DisplayID][]Mask
	peripherals   []peripheral.Region
	last          resolver.Result
	global        snapshot.Snapshot

	activePeriod atomic.Int64

	cmds chan func()
	stop chan struct{}

	mu   sync.RWMutex
	info Info
}

// NewController builds a stopped controller from its collaborators.
func NewController(opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		backend:    opts.Backend,
		adapter:    opts.Adapter,
		sink:       opts.Sink,
		monitor:    opts.Pointer,
		ownPID:     opts.OwnPID,
		log:        log,
		perDisplay: make(map[platform.DisplayID]snapshot.Snapshot),
		masks:      make(map[platform.DisplayID][]Mask),
		cmds:       make(chan func()),
	}
	c.ticker = frametick.New(func() (time.Duration, bool) {
		p := time.Duration(c.activePeriod.Load())
		return p, p > 0
	})
	c.configure(opts.Config, opts.Caps)
	return c
}

// configure rebuilds everything derived from config. Loop goroutine (or
// pre-start) only.
func (c *Controller) configure(cfg *config.Config, caps resolver.Capabilities) {
	c.cfg = cfg
	c.baseInterval, c.boostInt = cfg.Profile.Intervals()
	c.res = resolver.New(c.backend, caps, cfg.ExclusionList(), c.log)
	c.detector = peripheral.NewDetector(c.backend, cfg.Peripherals.ShellNames, peripheral.DockPrefs{
		Edge:     peripheral.ParseEdge(cfg.Peripherals.Dock.Edge),
		TileSize: cfg.Peripherals.Dock.TileSize,
		AutoHide: cfg.Peripherals.Dock.AutoHide,
	}, c.log)
}

// Start enters Polling and resolves immediately. Idempotent.
func (c *Controller) Start() {
	if c.stop != nil {
		return
	}
	c.state = StatePolling
	c.stop = make(chan struct{})
	if c.monitor != nil {
		c.monitor.Start()
	}
	go c.run(c.stop)
	c.log.Info("controller started", "profile", c.cfg.Profile)
}

// Stop returns to Idle, clearing caches and masks. Idempotent.
func (c *Controller) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
	if c.monitor != nil {
		c.monitor.Stop()
	}
}

// Info returns the published state.
func (c *Controller) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// ApplyConfig swaps the effective configuration on the loop goroutine.
// Interval changes take effect on the next poll cycle.
func (c *Controller) ApplyConfig(cfg *config.Config, caps resolver.Capabilities) {
	if c.stop == nil {
		c.configure(cfg, caps)
		return
	}
	done := make(chan struct{})
	select {
	case c.cmds <- func() { c.configure(cfg, caps); close(done) }:
		<-done
	case <-c.stop:
	}
}

func (c *Controller) run(stop <-chan struct{}) {
	c.refreshTopology()
	c.refreshPeripherals()

	poll := time.NewTimer(0)
	defer poll.Stop()
	topo := time.NewTicker(topologyInterval)
	defer topo.Stop()
	peri := time.NewTicker(peripheralInterval)
	defer peri.Stop()
	defer c.ticker.Stop()

	var signals <-chan pointer.Event
	if c.monitor != nil {
		signals = c.monitor.C()
	}

	for {
		select {
		case <-stop:
			c.shutdown()
			return
		case now := <-poll.C:
			c.stepPoll(now)
			poll.Reset(c.interval())
		case ev := <-signals:
			if c.handlePointer(ev, time.Now()) {
				// Entering boost must not wait out a base-interval
				// cycle: fire the poll now and re-arm at boost rate.
				if !poll.Stop() {
					select {
					case <-poll.C:
					default:
					}
				}
				poll.Reset(0)
			}
		case tick := <-c.ticker.C():
			c.stepFrame(tick.HostTime)
		case <-topo.C:
			c.refreshTopology()
		case <-peri.C:
			c.refreshPeripherals()
		case fn := <-c.cmds:
			fn()
		}
	}
}

// interval is the effective poll interval for the current state.
func (c *Controller) interval() time.Duration {
	if c.state == StateInteractionBoost {
		return c.boostInt
	}
	return c.baseInterval
}

// stepPoll runs one full resolution, leaving boost first if the
// deadline has passed.
func (c *Controller) stepPoll(now time.Time) {
	if c.state == StateInteractionBoost && now.After(c.boostDeadline) {
		c.state = StatePolling
		c.ticker.Stop()
	}
	c.resolveFull()
}

// handlePointer updates the boost deadline and reports whether the
// controller just entered InteractionBoost.
func (c *Controller) handlePointer(ev pointer.Event, now time.Time) bool {
	if c.state == StateIdle {
		return false
	}

	var deadline time.Time
	switch ev.Kind {
	case pointer.Down, pointer.Drag:
		deadline = now.Add(boostHold)
	case pointer.Up:
		deadline = now.Add(boostCooldown)
	}
	// Extend, never shorten.
	if deadline.After(c.boostDeadline) {
		c.boostDeadline = deadline
	}

	if c.state == StateInteractionBoost {
		return false
	}
	c.state = StateInteractionBoost
	c.ticker.Start()
	return true
}

// stepFrame is the frame-paced fast path: re-query only the primary
// window's frame and patch it into the cached snapshot.
func (c *Controller) stepFrame(time.Time) {
	if c.state != StateInteractionBoost {
		return
	}
	if c.last.PrimaryWindow == 0 {
		c.resolveFull()
		return
	}
	frame, ok := c.backend.WindowFrame(c.last.PrimaryWindow)
	if !ok {
		// Keeping an outdated mask here would dim the wrong area.
		c.resolveFull()
		return
	}
	if frame.ApproxEqual(c.last.Frame, snapshot.Tolerance) {
		return
	}
	c.last.Snapshot = c.last.Snapshot.WithFrame(frame)
	c.applySnapshot(c.last.Snapshot)
}

// resolveFull runs one complete resolution pass with a fresh
// introspection cache.
func (c *Controller) resolveFull() {
	cache := introspect.NewCache(c.adapter)
	res, err := c.res.Resolve(cache, resolver.Params{
		FullApplication: c.cfg.MaskScope == config.ScopeApplication,
		OverlayWindows:  c.sink.WindowIDs(),
		OwnPID:          c.ownPID,
		ShellNames:      c.cfg.Peripherals.ShellNames,
	})
	if err != nil {
		c.log.Warn("resolution failed", "error", err)
		return
	}
	c.last = res
	c.applySnapshot(res.Snapshot)
}

// applySnapshot projects the snapshot onto every display and drives the
// sink. A display whose application fails falls back to the previous
// globally known snapshot before being cleared.
func (c *Controller) applySnapshot(snap snapshot.Snapshot) {
	prev := c.global
	c.global = snap

	for _, d := range c.displays {
		masks := c.displayMasks(snap, d)
		if len(masks) == 0 {
			c.clearDisplay(d.ID)
			continue
		}
		if err := c.sink.ApplyMasks(d.ID, masks); err != nil {
			c.log.Warn("mask application failed", "display", d.ID, "error", err)
			fallback := c.displayMasks(prev, d)
			if len(fallback) == 0 || c.sink.ApplyMasks(d.ID, fallback) != nil {
				c.clearDisplay(d.ID)
				continue
			}
			c.perDisplay[d.ID] = prev
			c.masks[d.ID] = fallback
			continue
		}
		c.perDisplay[d.ID] = snap
		c.masks[d.ID] = masks
	}

	c.updateActivePeriod(snap)
	c.publish()
}

// displayMasks is the snapshot projection plus the display's peripheral
// carve-outs.
func (c *Controller) displayMasks(snap snapshot.Snapshot, d platform.Display) []Mask {
	masks := projectSnapshot(snap, d)
	masks = append(masks, projectPeripherals(
		c.peripherals, d,
		c.cfg.Peripherals.ExcludeDock,
		c.cfg.Peripherals.ExcludeShelf,
	)...)
	return masks
}

func (c *Controller) clearDisplay(id platform.DisplayID) {
	if err := c.sink.ClearMasks(id); err != nil {
		c.log.Warn("mask clear failed", "display", id, "error", err)
	}
	delete(c.perDisplay, id)
	delete(c.masks, id)
}

// updateActivePeriod feeds the frame ticker the refresh period of the
// display hosting the active window.
func (c *Controller) updateActivePeriod(snap snapshot.Snapshot) {
	d, ok := displayFor(snap.Frame, c.displays)
	if !ok || d.RefreshPeriod <= 0 {
		return
	}
	c.activePeriod.Store(int64(d.RefreshPeriod))
}

// refreshTopology reconciles displays with the window server, dropping
// caches for displays that disappeared and keeping the rest.
func (c *Controller) refreshTopology() {
	displays, err := c.backend.Displays()
	if err != nil {
		c.log.Warn("display enumeration failed", "error", err)
		return
	}
	c.applyTopology(displays)
}

func (c *Controller) applyTopology(displays []platform.Display) {
	if err := c.sink.SyncDisplays(displays); err != nil {
		c.log.Warn("overlay sync failed", "error", err)
	}

	seen := make(map[platform.DisplayID]bool, len(displays))
	for _, d := range displays {
		seen[d.ID] = true
	}
	for id := range c.perDisplay {
		if !seen[id] {
			delete(c.perDisplay, id)
			delete(c.masks, id)
		}
	}
	c.displays = displays
	c.applySnapshot(c.global)
}

// refreshPeripherals re-runs shelf detection on its slow cadence.
func (c *Controller) refreshPeripherals() {
	regions, err := c.detector.Detect()
	if err != nil {
		c.log.Warn("peripheral detection failed", "error", err)
		return
	}
	c.peripherals = regions
	c.applySnapshot(c.global)
}

// shutdown clears all state on the way back to Idle.
func (c *Controller) shutdown() {
	for _, d := range c.displays {
		c.clearDisplay(d.ID)
	}
	c.perDisplay = make(map[platform.DisplayID]snapshot.Snapshot)
	c.masks = make(map[platform.DisplayID][]Mask)
	c.global = snapshot.Snapshot{}
	c.last = resolver.Result{}
	c.state = StateIdle
	c.publish()
}

// publish refreshes the read-side copy of the controller state.
func (c *Controller) publish() {
	info := Info{
		State:       c.state.String(),
		Profile:     c.cfg.Profile,
		Displays:    append([]platform.Display(nil), c.displays...),
		Masks:       make(map[platform.DisplayID][]Mask, len(c.masks)),
		Peripherals: append([]peripheral.Region(nil), c.peripherals...),
		ActiveFrame: c.global,
		UpdatedAt:   time.Now(),
	}
	for id, m := range c.masks {
		info.Masks[id] = append([]Mask(nil), m...)
	}
	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
}
