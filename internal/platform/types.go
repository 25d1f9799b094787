package platform

import (
	"time"

	"github.com/softveil/softveil/internal/geometry"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// DisplayID is a stable identifier for a physical display within the
// current session. It is invalidated when the display disconnects.
type DisplayID int

// Display describes a physical display.
type Display struct {
	ID            DisplayID
	Name          string
	Bounds        geometry.Rect
	RefreshPeriod time.Duration // measured; zero when unknown
}

// Window stacking layers, modeled after compositor window levels. The
// window server reports these so transient surfaces (menus, popovers) can
// be told apart from ordinary document windows.
const (
	LayerDesktop   = -10
	LayerNormal    = 0
	LayerFloating  = 3
	LayerModal     = 8
	LayerDock      = 20
	LayerPopUpMenu = 101
)

// WindowInfo contains metadata and geometry for one on-screen window, as
// enumerated by the window server.
type WindowInfo struct {
	ID        WindowID
	PID       int
	OwnerName string // application identity (window class)
	Title     string
	Layer     int
	Alpha     float64 // 0 (invisible) .. 1 (opaque)
	Bounds    geometry.Rect
}

// Area returns the window's on-screen area.
func (w WindowInfo) Area() float64 {
	return w.Bounds.Area()
}

// Backend abstracts the window-server queries the engine needs.
//
// ListWindows returns windows front-to-back. A positive limit caps the
// enumeration to the topmost entries; zero means the full list.
type Backend interface {
	Displays() ([]Display, error)
	ListWindows(limit int) ([]WindowInfo, error)
	WindowFrame(id WindowID) (geometry.Rect, bool)
	FrontmostPID() (int, bool)
	PointerState() (PointerState, error)
}

// PointerState is a sample of the global pointer position and primary
// button state.
type PointerState struct {
	X       float64
	Y       float64
	Pressed bool
}
