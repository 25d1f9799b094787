package overlay

import (
	"math"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/softveil/softveil/internal/engine"
)

// steppedRects approximates a rounded rectangle with three stacked
// rectangles: a full-width body plus top and bottom strips inset by the
// corner radius. The shape extension has no arcs, so corners are cut
// square one radius in; the error stays inside the rounded outline.
func steppedRects(m engine.Mask) []xproto.Rectangle {
	x := m.Frame.X
	y := m.Frame.Y
	w := m.Frame.Width
	h := m.Frame.Height
	r := m.CornerRadius

	if r > w/2 {
		r = w / 2
	}
	if r > h/2 {
		r = h / 2
	}
	if r < 1 {
		return []xproto.Rectangle{rect(x, y, w, h)}
	}

	return []xproto.Rectangle{
		rect(x, y+r, w, h-2*r),
		rect(x+r, y, w-2*r, r),
		rect(x+r, y+h-r, w-2*r, r),
	}
}

func rect(x, y, w, h float64) xproto.Rectangle {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return xproto.Rectangle{
		X:      int16(math.Floor(x)),
		Y:      int16(math.Floor(y)),
		Width:  uint16(math.Ceil(w)),
		Height: uint16(math.Ceil(h)),
	}
}
