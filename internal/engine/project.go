package engine

import (
	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/peripheral"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/snapshot"
)

// Outset margins applied before intersecting with display bounds. Menus
// carry drop shadows the window server does not report, so they get the
// wider margin.
const (
	marginWindow = 2.0
	marginMenu   = 8.0
)

func purposeMargin(p snapshot.Purpose) float64 {
	if p == snapshot.PurposeApplicationWindow {
		return marginWindow
	}
	return marginMenu
}

// projectSnapshot converts a snapshot into display-local masks for one
// display. Regions that end up empty after intersection are dropped.
func projectSnapshot(snap snapshot.Snapshot, d platform.Display) []Mask {
	var masks []Mask
	add := func(frame geometry.Rect, radius, margin float64) {
		r := frame.Outset(margin).Intersect(d.Bounds)
		if r.Empty() {
			return
		}
		masks = append(masks, Mask{
			Frame:        r.Offset(-d.Bounds.X, -d.Bounds.Y),
			CornerRadius: radius,
		})
	}

	if !snap.Frame.Empty() {
		add(snap.Frame, snap.CornerRadius, marginWindow)
	}
	for _, reg := range snap.Regions {
		add(reg.Frame, reg.CornerRadius, purposeMargin(reg.Purpose))
	}
	return masks
}

// projectPeripherals converts the detected shelf surfaces on one display
// into display-local masks.
func projectPeripherals(regions []peripheral.Region, d platform.Display, excludeDock, excludeShelf bool) []Mask {
	var masks []Mask
	for _, reg := range regions {
		if reg.Display != d.ID {
			continue
		}
		if reg.Kind == peripheral.KindDock && !excludeDock {
			continue
		}
		if reg.Kind == peripheral.KindShelf && !excludeShelf {
			continue
		}
		frame := reg.Frame
		if reg.AutoHidden {
			frame = reg.HoverFrame
		}
		r := frame.Intersect(d.Bounds)
		if r.Empty() {
			continue
		}
		masks = append(masks, Mask{
			Frame:        r.Offset(-d.Bounds.X, -d.Bounds.Y),
			CornerRadius: reg.CornerRadius,
		})
	}
	return masks
}

// displayFor maps a frame to the display it belongs to: largest
// intersection area first, nearest center as the fallback.
func displayFor(frame geometry.Rect, displays []platform.Display) (platform.Display, bool) {
	if len(displays) == 0 {
		return platform.Display{}, false
	}

	best := -1
	bestArea := 0.0
	for i, d := range displays {
		if area := frame.Intersect(d.Bounds).Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	if best >= 0 {
		return displays[best], true
	}

	center := frame.Center()
	best = 0
	bestDist := center.DistanceTo(displays[0].Bounds.Center())
	for i, d := range displays[1:] {
		if dist := center.DistanceTo(d.Bounds.Center()); dist < bestDist {
			best, bestDist = i+1, dist
		}
	}
	return displays[best], true
}
