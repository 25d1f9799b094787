// Package overlay renders the veil: one override-redirect window per
// display, tinted and translucent, with the active-region masks punched
// out of its bounding shape.
package overlay

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/softveil/softveil/internal/engine"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/x11"
)

// Veil is the default engine.MaskSink: a shape-clipped dimming window
// per display.
type Veil struct {
	conn    *x11.Connection
	tint    uint32
	opacity float64
	log     *slog.Logger

	windows map[platform.DisplayID]*veilWindow
}

type veilWindow struct {
	id     xproto.Window
	width  uint16
	height uint16
	mapped bool
}

// New creates the veil and initializes the shape extension.
func New(conn *x11.Connection, tint uint32, opacity float64, log *slog.Logger) (*Veil, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := shape.Init(conn.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("shape extension unavailable: %w", err)
	}
	return &Veil{
		conn:    conn,
		tint:    tint,
		opacity: opacity,
		log:     log,
		windows: make(map[platform.DisplayID]*veilWindow),
	}, nil
}

// WindowIDs reports the veil's own windows so scans can skip them.
func (v *Veil) WindowIDs() map[platform.WindowID]bool {
	ids := make(map[platform.WindowID]bool, len(v.windows))
	for _, w := range v.windows {
		ids[platform.WindowID(w.id)] = true
	}
	return ids
}

// SyncDisplays creates veil windows for new displays and destroys the
// ones whose display disappeared.
func (v *Veil) SyncDisplays(displays []platform.Display) error {
	seen := make(map[platform.DisplayID]bool, len(displays))
	for _, d := range displays {
		seen[d.ID] = true
		if w, ok := v.windows[d.ID]; ok {
			v.configure(w, d)
			continue
		}
		w, err := v.create(d)
		if err != nil {
			return fmt.Errorf("veil window for display %d: %w", d.ID, err)
		}
		v.windows[d.ID] = w
	}

	for id, w := range v.windows {
		if !seen[id] {
			v.destroy(w)
			delete(v.windows, id)
		}
	}
	return nil
}

// ApplyMasks punches the display-local masks out of the veil's shape
// and maps it.
func (v *Veil) ApplyMasks(display platform.DisplayID, masks []engine.Mask) error {
	w, ok := v.windows[display]
	if !ok {
		return fmt.Errorf("no veil window for display %d", display)
	}
	conn := v.conn.XUtil.Conn()

	full := []xproto.Rectangle{{X: 0, Y: 0, Width: w.width, Height: w.height}}
	if err := shape.RectanglesChecked(
		conn, shape.SoSet, shape.SkBounding, 0,
		w.id, 0, 0, full,
	).Check(); err != nil {
		return fmt.Errorf("reset shape: %w", err)
	}

	var holes []xproto.Rectangle
	for _, m := range masks {
		holes = append(holes, steppedRects(m)...)
	}
	if len(holes) > 0 {
		if err := shape.RectanglesChecked(
			conn, shape.SoSubtract, shape.SkBounding, 0,
			w.id, 0, 0, holes,
		).Check(); err != nil {
			return fmt.Errorf("punch masks: %w", err)
		}
	}

	if !w.mapped {
		xproto.MapWindow(conn, w.id)
		w.mapped = true
	}
	v.raise(w)
	return nil
}

// ClearMasks covers the display completely.
func (v *Veil) ClearMasks(display platform.DisplayID) error {
	w, ok := v.windows[display]
	if !ok {
		return nil
	}
	conn := v.conn.XUtil.Conn()

	full := []xproto.Rectangle{{X: 0, Y: 0, Width: w.width, Height: w.height}}
	if err := shape.RectanglesChecked(
		conn, shape.SoSet, shape.SkBounding, 0,
		w.id, 0, 0, full,
	).Check(); err != nil {
		return fmt.Errorf("reset shape: %w", err)
	}
	if !w.mapped {
		xproto.MapWindow(conn, w.id)
		w.mapped = true
	}
	v.raise(w)
	return nil
}

// Close destroys all veil windows.
func (v *Veil) Close() {
	for id, w := range v.windows {
		v.destroy(w)
		delete(v.windows, id)
	}
}

func (v *Veil) create(d platform.Display) (*veilWindow, error) {
	conn := v.conn.XUtil.Conn()
	screen := v.conn.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}

	w := &veilWindow{
		id:     wid,
		width:  uint16(d.Bounds.Width),
		height: uint16(d.Bounds.Height),
	}

	// Override-redirect keeps the window manager out of the way.
	// Value list order follows the bit positions of the mask.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		v.conn.Root,
		int16(d.Bounds.X), int16(d.Bounds.Y),
		w.width, w.height,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{v.tint, 1},
	).Check()
	if err != nil {
		return nil, err
	}

	// Pointer events must pass straight through the veil.
	if err := shape.RectanglesChecked(
		conn, shape.SoSet, shape.SkInput, 0,
		wid, 0, 0, []xproto.Rectangle{},
	).Check(); err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, fmt.Errorf("clear input shape: %w", err)
	}

	opacity := uint(v.opacity * float64(0xffffffff))
	if err := xprop.ChangeProp32(v.conn.XUtil, wid, "_NET_WM_WINDOW_OPACITY", "CARDINAL", opacity); err != nil {
		v.log.Warn("opacity property not set", "error", err)
	}

	return w, nil
}

func (v *Veil) configure(w *veilWindow, d platform.Display) {
	conn := v.conn.XUtil.Conn()
	w.width = uint16(d.Bounds.Width)
	w.height = uint16(d.Bounds.Height)
	xproto.ConfigureWindow(
		conn,
		w.id,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{
			uint32(int16(d.Bounds.X)),
			uint32(int16(d.Bounds.Y)),
			uint32(w.width),
			uint32(w.height),
		},
	)
}

func (v *Veil) raise(w *veilWindow) {
	xproto.ConfigureWindow(
		v.conn.XUtil.Conn(),
		w.id,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	)
}

func (v *Veil) destroy(w *veilWindow) {
	conn := v.conn.XUtil.Conn()
	if w.mapped {
		xproto.UnmapWindow(conn, w.id)
	}
	xproto.DestroyWindow(conn, w.id)
}
