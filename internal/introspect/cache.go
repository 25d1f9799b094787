package introspect

import "github.com/softveil/softveil/internal/geometry"

// Cache memoizes introspection results for a single resolution cycle.
//
// It is created at the start of a resolution pass and discarded at its
// end, so stale geometry can never survive a window move. Query errors
// are swallowed into empty results: introspection degrades, it does not
// fail.
type Cache struct {
	adapter Adapter
	geo     map[int][]WindowGeometry
	windows map[int][]Window
}

// NewCache creates a cycle-scoped cache over the adapter.
func NewCache(adapter Adapter) *Cache {
	return &Cache{
		adapter: adapter,
		geo:     make(map[int][]WindowGeometry),
		windows: make(map[int][]Window),
	}
}

// Trusted reports whether introspection permission is granted.
func (c *Cache) Trusted() bool {
	return c.adapter != nil && c.adapter.Trusted()
}

// Geometry returns the memoized (frame, radius) pairs for a process.
func (c *Cache) Geometry(pid int) []WindowGeometry {
	if got, ok := c.geo[pid]; ok {
		return got
	}

	var got []WindowGeometry
	if c.Trusted() {
		if g, err := c.adapter.Geometry(pid); err == nil {
			got = g
		}
	}
	c.geo[pid] = got
	return got
}

// Windows returns the memoized window list for a process.
func (c *Cache) Windows(pid int) []Window {
	if got, ok := c.windows[pid]; ok {
		return got
	}

	var got []Window
	if c.Trusted() {
		if w, err := c.adapter.Windows(pid); err == nil {
			got = w
		}
	}
	c.windows[pid] = got
	return got
}

// FocusedWindow returns the process's focused window, if any.
func (c *Cache) FocusedWindow(pid int) (Window, bool) {
	if !c.Trusted() {
		return Window{}, false
	}
	return c.adapter.FocusedWindow(pid)
}

// RadiusFor matches a window-server frame against the process's
// introspected geometry and returns the corner radius when the matched
// window exposes one. Returns false both for "no frame match" and
// "matched but attribute unknown", and callers fall back to defaults.
func (c *Cache) RadiusFor(pid int, frame geometry.Rect, tol float64) (float64, bool) {
	for _, g := range c.Geometry(pid) {
		if g.Frame.ApproxEqual(frame, tol) {
			if g.CornerRadius == nil {
				return 0, false
			}
			return *g.CornerRadius, true
		}
	}
	return 0, false
}

// TitleFor matches a window-server frame against the process's
// introspected windows and returns the authoritative title.
func (c *Cache) TitleFor(pid int, frame geometry.Rect, tol float64) (string, bool) {
	for _, w := range c.Windows(pid) {
		if w.Frame.ApproxEqual(frame, tol) && w.Title != "" {
			return w.Title, true
		}
	}
	return "", false
}
