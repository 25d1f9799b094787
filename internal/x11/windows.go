package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Window stacking layers, mirrored by the platform package. Values are
// chosen so transient pop-up surfaces sit numerically far above normal
// document windows.
const (
	LayerDesktop   = -10
	LayerNormal    = 0
	LayerFloating  = 3
	LayerModal     = 8
	LayerDock      = 20
	LayerPopUpMenu = 101
)

// WindowGeom is a window frame in root coordinates.
type WindowGeom struct {
	X      int
	Y      int
	Width  int
	Height int
}

// StackingList returns all managed windows in front-to-back order.
func (c *Connection) StackingList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		return nil, err
	}

	// EWMH reports bottom-to-top; callers want the topmost first.
	out := make([]xproto.Window, len(clients))
	for i, w := range clients {
		out[len(clients)-1-i] = w
	}
	return out, nil
}

// ActiveWindow returns the currently focused window.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// WindowGeometry returns a window's frame in root coordinates.
func (c *Connection) WindowGeometry(windowID xproto.Window) (WindowGeom, bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return WindowGeom{}, false
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return WindowGeom{}, false
	}

	return WindowGeom{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, true
}

// WindowPID returns the owning process id, or 0 when not exposed.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	if pid, err := ewmh.WmPidGet(c.XUtil, windowID); err == nil {
		return int(pid)
	}
	return 0
}

// WindowClass returns the window's application class, or "".
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowTitle returns the window title, preferring EWMH over ICCCM.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}

// WindowLayer derives a stacking layer from the window's EWMH type and
// state properties.
func (c *Connection) WindowLayer(windowID xproto.Window) int {
	layer := LayerNormal

	if types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID); err == nil {
		for _, t := range types {
			switch t {
			case "_NET_WM_WINDOW_TYPE_DESKTOP":
				return LayerDesktop
			case "_NET_WM_WINDOW_TYPE_DOCK":
				return LayerDock
			case "_NET_WM_WINDOW_TYPE_MENU",
				"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
				"_NET_WM_WINDOW_TYPE_POPUP_MENU",
				"_NET_WM_WINDOW_TYPE_COMBO",
				"_NET_WM_WINDOW_TYPE_TOOLTIP":
				return LayerPopUpMenu
			case "_NET_WM_WINDOW_TYPE_NOTIFICATION":
				return LayerModal
			case "_NET_WM_WINDOW_TYPE_DIALOG",
				"_NET_WM_WINDOW_TYPE_UTILITY",
				"_NET_WM_WINDOW_TYPE_TOOLBAR",
				"_NET_WM_WINDOW_TYPE_SPLASH":
				if layer < LayerFloating {
					layer = LayerFloating
				}
			}
		}
	}

	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
		for _, state := range states {
			if state == "_NET_WM_STATE_ABOVE" && layer < LayerFloating {
				layer = LayerFloating
			}
		}
	}

	return layer
}

// WindowAlpha returns the window's opacity in [0, 1]. Windows without the
// opacity property are fully opaque.
func (c *Connection) WindowAlpha(windowID xproto.Window) float64 {
	v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, windowID, "_NET_WM_WINDOW_OPACITY"))
	if err != nil {
		return 1.0
	}
	return float64(v) / float64(^uint32(0))
}

// WindowMinimized reports whether the window is hidden/iconified.
func (c *Connection) WindowMinimized(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

// Compositor corner-radius properties, checked in order. Not every
// compositor exposes one; absence is "unknown", not zero.
var radiusAtoms = []string{"_PICOM_CORNER_RADIUS", "_NET_WM_WINDOW_RADIUS"}

// WindowCornerRadius returns the compositor-applied corner radius, if the
// window exposes one.
func (c *Connection) WindowCornerRadius(windowID xproto.Window) (float64, bool) {
	for _, atom := range radiusAtoms {
		if v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, windowID, atom)); err == nil {
			return float64(v), true
		}
	}
	return 0, false
}

// QueryPointer samples the global pointer position and button mask.
func (c *Connection) QueryPointer() (x, y int, pressed bool, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, false, err
	}

	const buttonMask = xproto.KeyButMaskButton1 | xproto.KeyButMaskButton2 | xproto.KeyButMaskButton3
	return int(reply.RootX), int(reply.RootY), reply.Mask&buttonMask != 0, nil
}
