// Package snapshot defines the canonical description of what must remain
// visible through the overlay: the focused window plus any auxiliary
// surfaces (menus, popovers, sibling windows) that belong with it.
package snapshot

import (
	"math"
	"sort"

	"github.com/softveil/softveil/internal/geometry"
)

// Tolerance is the equality slack for snapshot comparison. Keeping it
// above the window server's sub-pixel jitter prevents mask oscillation
// during slow drags.
const Tolerance = geometry.DefaultTolerance

// Purpose classifies a mask region. The order of the constants is the
// sort order of regions within a snapshot.
type Purpose int

const (
	// PurposeApplicationWindow is another window of the focused app.
	PurposeApplicationWindow Purpose = iota
	// PurposeApplicationMenu is a transient surface owned by the focused
	// app, e.g. a dropdown or popover.
	PurposeApplicationMenu
	// PurposeSystemMenu is a transient surface owned by the system shell.
	PurposeSystemMenu
)

func (p Purpose) String() string {
	switch p {
	case PurposeApplicationWindow:
		return "application_window"
	case PurposeApplicationMenu:
		return "application_menu"
	case PurposeSystemMenu:
		return "system_menu"
	default:
		return "unknown"
	}
}

// MaskRegion is one rectangle the overlay must not cover.
type MaskRegion struct {
	Frame        geometry.Rect
	CornerRadius float64
	Purpose      Purpose
}

// ApproxEqual compares two regions within tol.
func (m MaskRegion) ApproxEqual(o MaskRegion, tol float64) bool {
	return m.Purpose == o.Purpose &&
		math.Abs(m.CornerRadius-o.CornerRadius) <= tol &&
		m.Frame.ApproxEqual(o.Frame, tol)
}

// Snapshot is the resolved description of the currently active window.
// It is a value: created fresh on every successful resolution and never
// mutated afterwards.
type Snapshot struct {
	Frame        geometry.Rect
	CornerRadius float64
	Regions      []MaskRegion
}

// New builds a snapshot, normalizing geometry, clamping radii and sorting
// the supplementary regions into their deterministic order.
func New(frame geometry.Rect, cornerRadius float64, regions []MaskRegion) Snapshot {
	frame = frame.Normalized()

	sorted := make([]MaskRegion, 0, len(regions))
	for _, r := range regions {
		r.Frame = r.Frame.Normalized()
		r.CornerRadius = geometry.ClampRadius(r.CornerRadius, r.Frame)
		sorted = append(sorted, r)
	}
	SortRegions(sorted)

	return Snapshot{
		Frame:        frame,
		CornerRadius: geometry.ClampRadius(cornerRadius, frame),
		Regions:      sorted,
	}
}

// Empty reports whether the snapshot carries no visible geometry.
func (s Snapshot) Empty() bool {
	return s.Frame.Empty() && len(s.Regions) == 0
}

// WithFrame returns a copy with only the primary frame replaced. Used by
// the interaction fast path, which re-queries the primary window alone
// and keeps the supplementary regions from the last full resolution.
func (s Snapshot) WithFrame(frame geometry.Rect) Snapshot {
	s.Frame = frame.Normalized()
	s.CornerRadius = geometry.ClampRadius(s.CornerRadius, s.Frame)
	return s
}

// ApproxEqual reports whether two snapshots describe the same geometry
// within Tolerance.
func (s Snapshot) ApproxEqual(o Snapshot) bool {
	if !s.Frame.ApproxEqual(o.Frame, Tolerance) {
		return false
	}
	if math.Abs(s.CornerRadius-o.CornerRadius) > Tolerance {
		return false
	}
	if len(s.Regions) != len(o.Regions) {
		return false
	}
	for i := range s.Regions {
		if !s.Regions[i].ApproxEqual(o.Regions[i], Tolerance) {
			return false
		}
	}
	return true
}

// SortRegions orders regions by (purpose, y, x, width, height). The
// ordering is deterministic and independent of input order.
func SortRegions(regions []MaskRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Purpose != b.Purpose {
			return a.Purpose < b.Purpose
		}
		if a.Frame.Y != b.Frame.Y {
			return a.Frame.Y < b.Frame.Y
		}
		if a.Frame.X != b.Frame.X {
			return a.Frame.X < b.Frame.X
		}
		if a.Frame.Width != b.Frame.Width {
			return a.Frame.Width < b.Frame.Width
		}
		return a.Frame.Height < b.Frame.Height
	})
}
