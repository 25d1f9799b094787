// Package introspect provides the per-process window introspection
// adapter: authoritative window geometry, focus flags and optional
// corner-radius metadata, gated behind a permission probe.
//
// When permission is not granted every query returns empty results, never
// an error. Callers treat that as "no data" and fall back to
// window-server geometry alone.
package introspect

import "github.com/softveil/softveil/internal/geometry"

// Window is one on-screen window of a process, as seen by introspection.
type Window struct {
	Frame     geometry.Rect
	Title     string
	Minimized bool
	Main      bool
	Focused   bool
}

// WindowGeometry is a (frame, optional corner radius) pair used purely
// for geometry matching against window-server rectangles.
type WindowGeometry struct {
	Frame        geometry.Rect
	CornerRadius *float64 // nil when the window does not expose the attribute
}

// Adapter queries per-process window data.
type Adapter interface {
	// Trusted reports whether introspection permission is granted.
	Trusted() bool

	// Windows returns every on-screen window for the process.
	Windows(pid int) ([]Window, error)

	// Geometry returns (frame, optional radius) pairs for the process.
	Geometry(pid int) ([]WindowGeometry, error)

	// FocusedWindow returns the process's focused window, if any.
	FocusedWindow(pid int) (Window, bool)
}
