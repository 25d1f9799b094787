// Package resolver produces the canonical active-window snapshot from
// window-server enumeration and per-process introspection data.
package resolver

import (
	"log/slog"
	"strings"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/introspect"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/snapshot"
)

// matchTolerance is the slack used when correlating window-server frames
// with introspected geometry. Looser than snapshot comparison because the
// two sources measure decorations differently.
const matchTolerance = 2.0

// Params configures a single resolution pass.
type Params struct {
	// TargetPID explicitly selects the process to resolve. Zero means
	// the current foreground process.
	TargetPID int
	// FullApplication masks every window of the active app rather than
	// the focused window alone.
	FullApplication bool
	// OverlayWindows are the veil's own windows, excluded from scans by
	// window number.
	OverlayWindows map[platform.WindowID]bool
	// OwnPID is the overlay process itself.
	OwnPID int
	// ShellNames identifies system shell processes whose transient
	// surfaces are masked as system menus.
	ShellNames []string
}

// Result is one resolution outcome. The primary window identity rides
// along with the snapshot so callers can re-query just that window
// between full passes.
type Result struct {
	snapshot.Snapshot
	// PrimaryWindow is the window-server id of the primary surface, zero
	// when the snapshot came from introspection alone or is empty.
	PrimaryWindow platform.WindowID
	// PrimaryPID is the process owning the primary surface.
	PrimaryPID int
}

// Resolver classifies window-server and introspection data into active
// window snapshots.
type Resolver struct {
	backend    platform.Backend
	caps       Capabilities
	exclusions *config.Exclusions
	log        *slog.Logger
}

// New creates a resolver.
func New(backend platform.Backend, caps Capabilities, exclusions *config.Exclusions, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		backend:    backend,
		caps:       caps,
		exclusions: exclusions,
		log:        log,
	}
}

// Caps exposes the resolver's capability table entry.
func (r *Resolver) Caps() Capabilities { return r.caps }

// Resolve produces one snapshot describing what must remain visible. A
// legitimate "nothing to uncover" state (excluded foreground app, no
// usable windows, introspection denied) yields an empty snapshot, not an
// error.
func (r *Resolver) Resolve(cache *introspect.Cache, p Params) (Result, error) {
	// Topmost entries first, for latency; the full list only when the
	// cap yields nothing usable.
	windows, err := r.backend.ListWindows(r.caps.CandidateCap)
	if err != nil {
		return Result{}, err
	}

	candidates := r.primaryCandidates(cache, windows, p)
	if len(candidates) == 0 {
		windows, err = r.backend.ListWindows(0)
		if err != nil {
			return Result{}, err
		}
		candidates = r.primaryCandidates(cache, windows, p)
	}

	preferred, excluded := r.preferredPID(windows, p)
	if excluded {
		// Masking an arbitrary window here would uncover the wrong
		// surface; yield nothing instead.
		return Result{}, nil
	}

	primary, ok := pickPrimary(candidates, preferred)
	if !ok {
		return Result{
			Snapshot:   r.introspectionFallback(cache, preferred),
			PrimaryPID: preferred,
		}, nil
	}

	radius, _ := firstRadius(
		func() (float64, bool) {
			return cache.RadiusFor(primary.PID, primary.Bounds, matchTolerance)
		},
		func() (float64, bool) { return r.caps.WindowRadius, true },
	)

	regions := r.supplementary(cache, windows, primary, p)
	return Result{
		Snapshot:      snapshot.New(primary.Bounds, radius, regions),
		PrimaryWindow: primary.ID,
		PrimaryPID:    primary.PID,
	}, nil
}

// preferredPID determines the process whose windows are preferred as the
// primary. The second return is true when resolution must yield an empty
// snapshot because the foreground process may not be uncovered.
func (r *Resolver) preferredPID(windows []platform.WindowInfo, p Params) (int, bool) {
	if p.TargetPID != 0 {
		return p.TargetPID, false
	}

	pid, ok := r.backend.FrontmostPID()
	if !ok {
		return 0, false
	}
	if p.OwnPID != 0 && pid == p.OwnPID {
		return 0, true
	}

	if owner, found := ownerOf(windows, pid); found {
		if r.exclusions.ExcludesProcess(owner, owner) {
			r.log.Debug("foreground process excluded", "pid", pid, "owner", owner)
			return 0, true
		}
	}
	return pid, false
}

func ownerOf(windows []platform.WindowInfo, pid int) (string, bool) {
	for _, w := range windows {
		if w.PID == pid {
			return w.OwnerName, true
		}
	}
	return "", false
}

// primaryCandidates filters the enumeration down to windows that may act
// as the primary surface.
func (r *Resolver) primaryCandidates(cache *introspect.Cache, windows []platform.WindowInfo, p Params) []platform.WindowInfo {
	var out []platform.WindowInfo
	for _, w := range windows {
		if p.OverlayWindows[w.ID] {
			continue
		}
		if p.OwnPID != 0 && w.PID == p.OwnPID {
			continue
		}
		if w.Layer != platform.LayerNormal {
			continue
		}
		if w.Alpha < r.caps.MinAlpha {
			continue
		}
		if w.Bounds.Width < r.caps.MinDimension || w.Bounds.Height < r.caps.MinDimension {
			// Decorative.
			continue
		}
		if r.decide(cache, w) == config.DecisionExclude {
			continue
		}
		out = append(out, w)
	}
	return out
}

// pickPrimary selects the first candidate owned by the preferred process,
// else the first candidate overall. Front-to-back input order breaks
// ties.
func pickPrimary(candidates []platform.WindowInfo, preferred int) (platform.WindowInfo, bool) {
	if len(candidates) == 0 {
		return platform.WindowInfo{}, false
	}
	if preferred != 0 {
		for _, w := range candidates {
			if w.PID == preferred {
				return w, true
			}
		}
	}
	return candidates[0], true
}

// supplementary collects the mask regions that accompany the primary
// window: sibling windows, the app's transient surfaces and system shell
// menus.
func (r *Resolver) supplementary(cache *introspect.Cache, windows []platform.WindowInfo, primary platform.WindowInfo, p Params) []snapshot.MaskRegion {
	var regions []snapshot.MaskRegion
	for _, w := range windows {
		if w.ID == primary.ID || p.OverlayWindows[w.ID] {
			continue
		}
		if p.OwnPID != 0 && w.PID == p.OwnPID {
			continue
		}
		if w.Alpha < r.caps.MinAlpha || w.Bounds.Empty() {
			continue
		}

		title := r.resolvedTitle(cache, w)
		decision := r.exclusions.Decide(w.OwnerName, w.OwnerName, title)
		if decision == config.DecisionExclude {
			continue
		}

		transient := isTransientSurface(w, title, r.caps)

		var purpose snapshot.Purpose
		switch {
		case w.PID == primary.PID && transient:
			purpose = snapshot.PurposeApplicationMenu
		case w.PID == primary.PID && (p.FullApplication || decision == config.DecisionForce):
			purpose = snapshot.PurposeApplicationWindow
		case w.PID == primary.PID:
			continue
		case isShellProcess(w.OwnerName, p.ShellNames):
			purpose = snapshot.PurposeSystemMenu
		case transient:
			purpose = snapshot.PurposeSystemMenu
		case decision == config.DecisionForce:
			purpose = snapshot.PurposeApplicationWindow
		default:
			continue
		}

		fallback := r.caps.WindowRadius
		if purpose != snapshot.PurposeApplicationWindow {
			fallback = r.caps.MenuRadius
		}
		radius, _ := firstRadius(
			func() (float64, bool) { return cache.RadiusFor(w.PID, w.Bounds, matchTolerance) },
			func() (float64, bool) { return fallback, true },
		)

		regions = append(regions, snapshot.MaskRegion{
			Frame:        w.Bounds,
			CornerRadius: radius,
			Purpose:      purpose,
		})
	}
	return regions
}

// introspectionFallback synthesizes a snapshot from the introspection
// adapter alone, for when the window server yields nothing usable.
func (r *Resolver) introspectionFallback(cache *introspect.Cache, preferred int) snapshot.Snapshot {
	if preferred == 0 || !cache.Trusted() {
		return snapshot.Snapshot{}
	}

	w, ok := cache.FocusedWindow(preferred)
	if !ok || w.Minimized {
		return snapshot.Snapshot{}
	}

	radius, _ := firstRadius(
		func() (float64, bool) { return cache.RadiusFor(preferred, w.Frame, matchTolerance) },
		func() (float64, bool) { return r.caps.WindowRadius, true },
	)

	r.log.Debug("window server yielded no candidates, using introspection fallback", "pid", preferred)
	return snapshot.New(w.Frame, radius, nil)
}

// decide resolves a window's exclusion treatment using the best available
// title.
func (r *Resolver) decide(cache *introspect.Cache, w platform.WindowInfo) config.Decision {
	return r.exclusions.Decide(w.OwnerName, w.OwnerName, r.resolvedTitle(cache, w))
}

// resolvedTitle prefers introspection data over the window-server name.
func (r *Resolver) resolvedTitle(cache *introspect.Cache, w platform.WindowInfo) string {
	if title, ok := cache.TitleFor(w.PID, w.Bounds, matchTolerance); ok {
		return title
	}
	return strings.TrimSpace(w.Title)
}

func isShellProcess(owner string, shellNames []string) bool {
	if owner == "" {
		return false
	}
	lower := strings.ToLower(owner)
	for _, name := range shellNames {
		if lower == strings.ToLower(name) {
			return true
		}
	}
	return false
}
