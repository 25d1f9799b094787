package resolver

import "github.com/softveil/softveil/internal/platform"

// Generation identifies a platform generation for heuristic tuning.
// Numeric defaults (corner radii, transient thresholds) differ between
// generations, so they live in a lookup table instead of inline
// conditionals.
type Generation int

const (
	GenerationLegacy Generation = iota
	GenerationModern
)

// Capabilities is the tunable constant set for one platform generation.
type Capabilities struct {
	// WindowRadius is the default corner radius for ordinary windows
	// when introspection exposes none.
	WindowRadius float64
	// MenuRadius is the default corner radius for transient surfaces.
	MenuRadius float64

	// TransientLayerMin is the stacking layer at or above which a window
	// is treated as transient outright. Empirically tuned; above normal
	// document windows, below the pop-up menu level.
	TransientLayerMin int
	// PopUpMenuLayer is the platform's pop-up menu level.
	PopUpMenuLayer int
	// FloatingLayer is the elevated floating level used by the
	// small-surface branch of the transient heuristic.
	FloatingLayer int

	// CandidateCap bounds the topmost window-server entries scanned
	// before falling back to the full list.
	CandidateCap int
	// MinAlpha is the opacity below which a window is ignored.
	MinAlpha float64
	// MinDimension is the side length below which a window is treated
	// as decorative.
	MinDimension float64

	// Size bands for the small-surface transient branch.
	CompactHeight     float64
	CompactHeightArea float64
	NarrowWidth       float64
	NarrowWidthArea   float64
}

// Caps returns the capability table entry for a generation.
func Caps(g Generation) Capabilities {
	caps := Capabilities{
		WindowRadius:      5,
		MenuRadius:        6,
		TransientLayerMin: 18,
		PopUpMenuLayer:    platform.LayerPopUpMenu,
		FloatingLayer:     platform.LayerFloating,
		CandidateCap:      24,
		MinAlpha:          0.05,
		MinDimension:      40,
		CompactHeight:     620,
		CompactHeightArea: 520000,
		NarrowWidth:       420,
		NarrowWidthArea:   900000,
	}
	if g == GenerationModern {
		// Newer compositors round windows visibly more.
		caps.WindowRadius = 9
	}
	return caps
}

// GenerationForServerRelease maps an X server release number to a
// platform generation. Servers from the 1.20 series onward ship with
// compositors that apply the larger rounding.
func GenerationForServerRelease(release uint32) Generation {
	if release >= 12000000 {
		return GenerationModern
	}
	return GenerationLegacy
}
