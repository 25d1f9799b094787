//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// Displays returns all active displays sorted by ID.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:   DisplayID(m.ID),
			Name: m.Name,
			Bounds: geometry.Rect{
				X:      float64(m.X),
				Y:      float64(m.Y),
				Width:  float64(m.Width),
				Height: float64(m.Height),
			},
			RefreshPeriod: m.RefreshPeriod,
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ListWindows enumerates on-screen windows front-to-back. A positive limit
// caps the scan to the topmost entries; zero returns the full list.
// Minimized windows are skipped; they have no on-screen footprint.
func (b *LinuxBackend) ListWindows(limit int) ([]WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	stacking, err := conn.StackingList()
	if err != nil {
		return nil, err
	}

	windows := make([]WindowInfo, 0, len(stacking))
	for _, windowID := range stacking {
		if limit > 0 && len(windows) >= limit {
			break
		}

		if conn.WindowMinimized(windowID) {
			continue
		}

		geom, ok := conn.WindowGeometry(windowID)
		if !ok {
			continue
		}

		windows = append(windows, WindowInfo{
			ID:        WindowID(windowID),
			PID:       conn.WindowPID(windowID),
			OwnerName: conn.WindowClass(windowID),
			Title:     conn.WindowTitle(windowID),
			Layer:     conn.WindowLayer(windowID),
			Alpha:     conn.WindowAlpha(windowID),
			Bounds: geometry.Rect{
				X:      float64(geom.X),
				Y:      float64(geom.Y),
				Width:  float64(geom.Width),
				Height: float64(geom.Height),
			},
		})
	}

	return windows, nil
}

// WindowFrame returns one window's current frame without a full enumeration.
func (b *LinuxBackend) WindowFrame(id WindowID) (geometry.Rect, bool) {
	if b == nil || b.conn == nil {
		return geometry.Rect{}, false
	}

	geom, ok := b.conn.WindowGeometry(xproto.Window(id))
	if !ok {
		return geometry.Rect{}, false
	}
	return geometry.Rect{
		X:      float64(geom.X),
		Y:      float64(geom.Y),
		Width:  float64(geom.Width),
		Height: float64(geom.Height),
	}, true
}

// FrontmostPID returns the process id owning the focused window.
func (b *LinuxBackend) FrontmostPID() (int, bool) {
	if b == nil || b.conn == nil {
		return 0, false
	}

	active, err := b.conn.ActiveWindow()
	if err != nil || active == 0 {
		return 0, false
	}

	pid := b.conn.WindowPID(active)
	if pid == 0 {
		return 0, false
	}
	return pid, true
}

// PointerState samples the global pointer position and button state.
func (b *LinuxBackend) PointerState() (PointerState, error) {
	conn, err := b.connection()
	if err != nil {
		return PointerState{}, err
	}

	x, y, pressed, err := conn.QueryPointer()
	if err != nil {
		return PointerState{}, err
	}
	return PointerState{X: float64(x), Y: float64(y), Pressed: pressed}, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
