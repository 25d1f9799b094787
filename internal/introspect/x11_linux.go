//go:build linux

package introspect

import (
	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/x11"
)

// X11Adapter implements per-process introspection over an X11 connection.
type X11Adapter struct {
	conn *x11.Connection
}

var _ Adapter = (*X11Adapter)(nil)

// NewX11Adapter creates an introspection adapter over an existing connection.
func NewX11Adapter(conn *x11.Connection) *X11Adapter {
	return &X11Adapter{conn: conn}
}

// Trusted reports whether the adapter can read client window properties.
// On X11 this follows from having a live server connection; there is no
// separate per-process consent step.
func (a *X11Adapter) Trusted() bool {
	return a != nil && a.conn != nil && a.conn.XUtil != nil
}

// Windows returns every on-screen window owned by the process.
func (a *X11Adapter) Windows(pid int) ([]Window, error) {
	if !a.Trusted() {
		return nil, nil
	}

	stacking, err := a.conn.StackingList()
	if err != nil {
		return nil, err
	}

	active, _ := a.conn.ActiveWindow()

	var out []Window
	for _, windowID := range stacking {
		if a.conn.WindowPID(windowID) != pid {
			continue
		}

		geom, ok := a.conn.WindowGeometry(windowID)
		if !ok {
			continue
		}

		minimized := a.conn.WindowMinimized(windowID)
		out = append(out, Window{
			Frame: geometry.Rect{
				X:      float64(geom.X),
				Y:      float64(geom.Y),
				Width:  float64(geom.Width),
				Height: float64(geom.Height),
			},
			Title:     a.conn.WindowTitle(windowID),
			Minimized: minimized,
			// The topmost non-minimized window of the process acts as
			// its main window.
			Main:    len(out) == 0 && !minimized,
			Focused: windowID == active,
		})
	}

	return out, nil
}

// Geometry returns (frame, optional radius) pairs for the process.
func (a *X11Adapter) Geometry(pid int) ([]WindowGeometry, error) {
	if !a.Trusted() {
		return nil, nil
	}

	stacking, err := a.conn.StackingList()
	if err != nil {
		return nil, err
	}

	var out []WindowGeometry
	for _, windowID := range stacking {
		if a.conn.WindowPID(windowID) != pid {
			continue
		}

		geom, ok := a.conn.WindowGeometry(windowID)
		if !ok {
			continue
		}

		wg := WindowGeometry{
			Frame: geometry.Rect{
				X:      float64(geom.X),
				Y:      float64(geom.Y),
				Width:  float64(geom.Width),
				Height: float64(geom.Height),
			},
		}
		if radius, ok := a.conn.WindowCornerRadius(windowID); ok {
			wg.CornerRadius = &radius
		}
		out = append(out, wg)
	}

	return out, nil
}

// FocusedWindow returns the process's focused window, if any.
func (a *X11Adapter) FocusedWindow(pid int) (Window, bool) {
	windows, err := a.Windows(pid)
	if err != nil {
		return Window{}, false
	}
	for _, w := range windows {
		if w.Focused && !w.Minimized {
			return w, true
		}
	}
	return Window{}, false
}
