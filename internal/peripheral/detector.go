// Package peripheral detects system shelf surfaces (docks, panels and
// auto-arranging window shelves) independently of window focus, so the
// overlay can leave them uncovered.
package peripheral

import (
	"log/slog"
	"strings"

	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/platform"
)

// Kind classifies a peripheral region.
type Kind int

const (
	KindDock Kind = iota
	KindShelf
)

func (k Kind) String() string {
	if k == KindShelf {
		return "shelf"
	}
	return "dock"
}

// Edge is the display edge a peripheral region hugs.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	default:
		return "bottom"
	}
}

// ParseEdge maps a config string to an Edge.
func ParseEdge(s string) Edge {
	switch strings.ToLower(s) {
	case "left":
		return EdgeLeft
	case "right":
		return EdgeRight
	case "top":
		return EdgeTop
	default:
		return EdgeBottom
	}
}

// Region is one detected shelf surface. Rebuilt on every detection pass,
// never persisted.
type Region struct {
	Display      platform.DisplayID
	Kind         Kind
	Edge         Edge
	AutoHidden   bool
	Frame        geometry.Rect
	HoverFrame   geometry.Rect
	CornerRadius float64
}

// DockPrefs are the stored dock preferences used to synthesize a
// placeholder when the dock is auto-hidden and has no visible window.
type DockPrefs struct {
	Edge     Edge
	TileSize float64
	AutoHide bool
}

// Geometry thresholds for shelf classification, relative to the display.
const (
	edgeTolerance = 4.0
	mergePadding  = 2.0
	hoverMargin   = 16.0
	shelfRadius   = 8.0

	// A dock spans a substantial share of one axis while staying thin
	// on the other.
	dockSpanRatioMin  = 0.30
	dockThickRatioMax = 0.15

	// A window shelf is a narrow strip on a side edge that does not
	// reach the top or bottom.
	shelfWidthRatioMax  = 0.25
	shelfHeightRatioMin = 0.20
	shelfHeightRatioMax = 0.90
)

// Detector identifies dock and shelf surfaces.
type Detector struct {
	backend    platform.Backend
	shellNames []string
	prefs      DockPrefs
	log        *slog.Logger
}

// NewDetector creates a peripheral detector.
func NewDetector(backend platform.Backend, shellNames []string, prefs DockPrefs, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		backend:    backend,
		shellNames: shellNames,
		prefs:      prefs,
		log:        log,
	}
}

// Detect runs one detection pass over the current window list and
// display topology.
func (d *Detector) Detect() ([]Region, error) {
	displays, err := d.backend.Displays()
	if err != nil {
		return nil, err
	}
	if len(displays) == 0 {
		return nil, nil
	}

	windows, err := d.backend.ListWindows(0)
	if err != nil {
		return nil, err
	}

	var regions []Region
	for _, w := range windows {
		if !d.isShellWindow(w) {
			continue
		}
		display, ok := displayFor(displays, w.Bounds)
		if !ok {
			continue
		}
		if region, ok := classify(w, display); ok {
			regions = append(regions, region)
		}
	}

	regions = mergeRegions(regions, displays)

	if d.prefs.AutoHide && !containsDock(regions) {
		regions = append(regions, d.hiddenDockPlaceholder(displays[0]))
	}

	return regions, nil
}

func (d *Detector) isShellWindow(w platform.WindowInfo) bool {
	if w.Layer == platform.LayerDock {
		return true
	}
	owner := strings.ToLower(w.OwnerName)
	if owner == "" {
		return false
	}
	for _, name := range d.shellNames {
		if owner == strings.ToLower(name) {
			return true
		}
	}
	return false
}

// classify decides whether a shell window is a dock or a shelf strip on
// the given display.
func classify(w platform.WindowInfo, d platform.Display) (Region, bool) {
	b := d.Bounds
	r := w.Bounds

	widthRatio := r.Width / b.Width
	heightRatio := r.Height / b.Height

	hugsLeft := r.X-b.X <= edgeTolerance
	hugsRight := b.MaxX()-r.MaxX() <= edgeTolerance
	hugsTop := r.Y-b.Y <= edgeTolerance
	hugsBottom := b.MaxY()-r.MaxY() <= edgeTolerance

	// Horizontal dock: wide and thin against the top or bottom edge.
	if widthRatio >= dockSpanRatioMin && heightRatio <= dockThickRatioMax && (hugsTop || hugsBottom) {
		edge := EdgeBottom
		if hugsTop {
			edge = EdgeTop
		}
		return dockRegion(d, r, edge), true
	}

	// Vertical dock: tall and thin against a side edge.
	if heightRatio >= dockSpanRatioMin && widthRatio <= dockThickRatioMax && (hugsLeft || hugsRight) {
		edge := EdgeLeft
		if hugsRight {
			edge = EdgeRight
		}
		return dockRegion(d, r, edge), true
	}

	// Window shelf: a strip on a side edge, clear of top and bottom,
	// on an elevated layer.
	if (hugsLeft || hugsRight) && !hugsTop && !hugsBottom &&
		widthRatio <= shelfWidthRatioMax &&
		heightRatio >= shelfHeightRatioMin && heightRatio <= shelfHeightRatioMax &&
		w.Layer > platform.LayerNormal {
		edge := EdgeLeft
		if hugsRight {
			edge = EdgeRight
		}
		return Region{
			Display:      d.ID,
			Kind:         KindShelf,
			Edge:         edge,
			Frame:        r,
			HoverFrame:   r.Outset(hoverMargin).Intersect(b),
			CornerRadius: shelfRadius,
		}, true
	}

	return Region{}, false
}

func dockRegion(d platform.Display, frame geometry.Rect, edge Edge) Region {
	return Region{
		Display:      d.ID,
		Kind:         KindDock,
		Edge:         edge,
		Frame:        frame,
		HoverFrame:   frame.Outset(hoverMargin).Intersect(d.Bounds),
		CornerRadius: shelfRadius,
	}
}

// mergeRegions unions candidates sharing a display and classification,
// padding each before the union so adjacent fragments coalesce.
func mergeRegions(regions []Region, displays []platform.Display) []Region {
	type key struct {
		display platform.DisplayID
		kind    Kind
	}
	merged := make(map[key]Region)
	var order []key

	for _, r := range regions {
		k := key{display: r.Display, kind: r.Kind}
		if existing, ok := merged[k]; ok {
			existing.Frame = existing.Frame.Union(r.Frame.Outset(mergePadding))
			existing.HoverFrame = existing.HoverFrame.Union(r.HoverFrame)
			merged[k] = existing
			continue
		}
		order = append(order, k)
		merged[k] = r
	}

	boundsFor := func(id platform.DisplayID) (geometry.Rect, bool) {
		for _, d := range displays {
			if d.ID == id {
				return d.Bounds, true
			}
		}
		return geometry.Rect{}, false
	}

	out := make([]Region, 0, len(order))
	for _, k := range order {
		r := merged[k]
		if b, ok := boundsFor(r.Display); ok {
			r.Frame = r.Frame.Intersect(b)
			r.HoverFrame = r.HoverFrame.Intersect(b)
		}
		if r.Frame.Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsDock(regions []Region) bool {
	for _, r := range regions {
		if r.Kind == KindDock {
			return true
		}
	}
	return false
}

// hiddenDockPlaceholder synthesizes a region from stored dock preferences
// so a hover-to-reveal gesture is anticipated even while the dock has no
// visible window.
func (d *Detector) hiddenDockPlaceholder(display platform.Display) Region {
	b := display.Bounds
	tile := d.prefs.TileSize

	var frame, hover geometry.Rect
	switch d.prefs.Edge {
	case EdgeTop:
		frame = geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: 2}
		hover = geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: tile}
	case EdgeLeft:
		frame = geometry.Rect{X: b.X, Y: b.Y, Width: 2, Height: b.Height}
		hover = geometry.Rect{X: b.X, Y: b.Y, Width: tile, Height: b.Height}
	case EdgeRight:
		frame = geometry.Rect{X: b.MaxX() - 2, Y: b.Y, Width: 2, Height: b.Height}
		hover = geometry.Rect{X: b.MaxX() - tile, Y: b.Y, Width: tile, Height: b.Height}
	default:
		frame = geometry.Rect{X: b.X, Y: b.MaxY() - 2, Width: b.Width, Height: 2}
		hover = geometry.Rect{X: b.X, Y: b.MaxY() - tile, Width: b.Width, Height: tile}
	}

	return Region{
		Display:      display.ID,
		Kind:         KindDock,
		Edge:         d.prefs.Edge,
		AutoHidden:   true,
		Frame:        frame,
		HoverFrame:   hover,
		CornerRadius: shelfRadius,
	}
}

// displayFor picks the display with the largest intersection with the
// frame, falling back to the display containing its center.
func displayFor(displays []platform.Display, frame geometry.Rect) (platform.Display, bool) {
	var best platform.Display
	bestArea := 0.0
	for _, d := range displays {
		if area := d.Bounds.Intersect(frame).Area(); area > bestArea {
			bestArea = area
			best = d
		}
	}
	if bestArea > 0 {
		return best, true
	}

	center := frame.Center()
	for _, d := range displays {
		if d.Bounds.Contains(center) {
			return d, true
		}
	}
	return platform.Display{}, false
}
