package engine

import (
	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/platform"
)

// Mask is one rectangle, in display-local coordinates, that the overlay
// must leave uncovered on a given display.
type Mask struct {
	Frame        geometry.Rect `json:"frame"`
	CornerRadius float64       `json:"corner_radius"`
}

// MaskSink is the rendering layer the controller drives. The in-repo
// shape overlay implements it; tests substitute fakes.
type MaskSink interface {
	// SyncDisplays reconciles the sink's overlay windows with the
	// current topology.
	SyncDisplays(displays []platform.Display) error
	// ApplyMasks replaces the display's punch-out list.
	ApplyMasks(display platform.DisplayID, masks []Mask) error
	// ClearMasks covers the display completely.
	ClearMasks(display platform.DisplayID) error
	// WindowIDs reports the sink's own window-server windows so the
	// resolver can skip them during scans.
	WindowIDs() map[platform.WindowID]bool
}
