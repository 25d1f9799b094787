package resolver

import (
	"strings"

	"github.com/softveil/softveil/internal/platform"
)

// Names and titles carrying any of these fragments mark a window as a
// transient surface regardless of its geometry.
var transientKeywords = []string{
	"menu", "popup", "popover", "dropdown", "context", "tooltip", "combo",
}

func hasTransientKeyword(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range transientKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isTransientSurface decides whether a window behaves like a menu or
// popover rather than an ordinary document window. title is the resolved
// title (introspection-preferred).
//
// The size/layer thresholds are empirically tuned starting points, kept
// in the capability table so they can be revisited per platform.
func isTransientSurface(w platform.WindowInfo, title string, caps Capabilities) bool {
	if hasTransientKeyword(w.OwnerName) {
		return true
	}
	if w.Layer >= caps.PopUpMenuLayer {
		return true
	}
	if w.Layer >= caps.TransientLayerMin {
		return true
	}
	if hasTransientKeyword(title) {
		return true
	}

	area := w.Area()
	small := (w.Bounds.Height <= caps.CompactHeight && area <= caps.CompactHeightArea) ||
		(w.Bounds.Width <= caps.NarrowWidth && area <= caps.NarrowWidthArea)
	if !small {
		return false
	}

	// Small surfaces: elevated floating layer is a strong signal, a
	// missing owner on the base layer or any moderate elevation a weak
	// one.
	if w.Layer >= caps.FloatingLayer {
		return true
	}
	if w.OwnerName == "" && w.Layer == platform.LayerNormal {
		return true
	}
	return w.Layer > platform.LayerNormal
}
