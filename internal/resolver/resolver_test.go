package resolver

import (
	"testing"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/geometry"
	"github.com/softveil/softveil/internal/introspect"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/snapshot"
)

type fakeBackend struct {
	windows  []platform.WindowInfo
	frontPID int
	frontOK  bool
}

func (f *fakeBackend) Displays() ([]platform.Display, error) { return nil, nil }

func (f *fakeBackend) ListWindows(limit int) ([]platform.WindowInfo, error) {
	if limit > 0 && len(f.windows) > limit {
		return f.windows[:limit], nil
	}
	return f.windows, nil
}

func (f *fakeBackend) WindowFrame(id platform.WindowID) (geometry.Rect, bool) {
	for _, w := range f.windows {
		if w.ID == id {
			return w.Bounds, true
		}
	}
	return geometry.Rect{}, false
}

func (f *fakeBackend) FrontmostPID() (int, bool) { return f.frontPID, f.frontOK }

func (f *fakeBackend) PointerState() (platform.PointerState, error) {
	return platform.PointerState{}, nil
}

type fakeAdapter struct {
	trusted bool
	geo     map[int][]introspect.WindowGeometry
	windows map[int][]introspect.Window
}

func (f *fakeAdapter) Trusted() bool { return f.trusted }

func (f *fakeAdapter) Windows(pid int) ([]introspect.Window, error) {
	return f.windows[pid], nil
}

func (f *fakeAdapter) Geometry(pid int) ([]introspect.WindowGeometry, error) {
	return f.geo[pid], nil
}

func (f *fakeAdapter) FocusedWindow(pid int) (introspect.Window, bool) {
	for _, w := range f.windows[pid] {
		if w.Focused {
			return w, true
		}
	}
	return introspect.Window{}, false
}

func normalWindow(id platform.WindowID, pid int, owner string, r geometry.Rect) platform.WindowInfo {
	return platform.WindowInfo{
		ID: id, PID: pid, OwnerName: owner,
		Layer: platform.LayerNormal, Alpha: 1, Bounds: r,
	}
}

func newResolver(backend platform.Backend, rules []config.ExclusionRule) *Resolver {
	return New(backend, Caps(GenerationModern), config.NewExclusions(rules), nil)
}

func emptyCache() *introspect.Cache {
	return introspect.NewCache(&fakeAdapter{})
}

func TestResolveSingleForegroundWindow(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	backend := &fakeBackend{
		windows:  []platform.WindowInfo{normalWindow(1, 10, "Editor", frame)},
		frontPID: 10, frontOK: true,
	}

	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snap.Empty() {
		t.Fatalf("expected a snapshot")
	}
	if !snap.Frame.ApproxEqual(frame, snapshot.Tolerance) {
		t.Fatalf("frame = %+v, want %+v", snap.Frame, frame)
	}
	if snap.CornerRadius != Caps(GenerationModern).WindowRadius {
		t.Fatalf("radius = %v, want platform default %v", snap.CornerRadius, Caps(GenerationModern).WindowRadius)
	}
	if len(snap.Regions) != 0 {
		t.Fatalf("unexpected regions: %+v", snap.Regions)
	}
}

func TestResolveExcludedForegroundYieldsEmpty(t *testing.T) {
	backend := &fakeBackend{
		windows: []platform.WindowInfo{
			normalWindow(1, 10, "Gimp", geometry.Rect{X: 0, Y: 0, Width: 640, Height: 480}),
		},
		frontPID: 10, frontOK: true,
	}
	r := newResolver(backend, []config.ExclusionRule{
		{App: "Gimp", Treatment: config.TreatmentAlways},
	})

	snap, err := r.Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Empty() {
		t.Fatalf("excluded foreground must yield empty snapshot, got %+v", snap)
	}
}

func TestResolveOwnProcessYieldsEmpty(t *testing.T) {
	backend := &fakeBackend{
		windows: []platform.WindowInfo{
			normalWindow(1, 99, "softveil", geometry.Rect{Width: 1920, Height: 1080}),
		},
		frontPID: 99, frontOK: true,
	}

	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{OwnPID: 99})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Empty() {
		t.Fatalf("own process as foreground must yield empty snapshot")
	}
}

func TestResolveDetectsDropdown(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	dropdown := geometry.Rect{X: 120, Y: 650, Width: 200, Height: 40}
	backend := &fakeBackend{
		windows: []platform.WindowInfo{
			{ID: 2, PID: 10, OwnerName: "Editor", Layer: platform.LayerPopUpMenu, Alpha: 1, Bounds: dropdown},
			normalWindow(1, 10, "Editor", frame),
		},
		frontPID: 10, frontOK: true,
	}

	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Frame.ApproxEqual(frame, snapshot.Tolerance) {
		t.Fatalf("primary frame = %+v", snap.Frame)
	}
	if len(snap.Regions) != 1 {
		t.Fatalf("regions = %+v, want one dropdown", snap.Regions)
	}
	got := snap.Regions[0]
	if got.Purpose != snapshot.PurposeApplicationMenu {
		t.Fatalf("purpose = %v, want application menu", got.Purpose)
	}
	if !got.Frame.ApproxEqual(dropdown, snapshot.Tolerance) {
		t.Fatalf("dropdown frame = %+v", got.Frame)
	}
	if got.CornerRadius != Caps(GenerationModern).MenuRadius {
		t.Fatalf("dropdown radius = %v, want menu default", got.CornerRadius)
	}
}

func TestResolveFullApplicationMasksSiblings(t *testing.T) {
	primary := geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	sibling := geometry.Rect{X: 900, Y: 50, Width: 700, Height: 500}
	backend := &fakeBackend{
		windows: []platform.WindowInfo{
			normalWindow(1, 10, "Editor", primary),
			normalWindow(2, 10, "Editor", sibling),
		},
		frontPID: 10, frontOK: true,
	}

	// Focused-window scope: sibling stays covered.
	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(snap.Regions) != 0 {
		t.Fatalf("focused scope should have no sibling regions, got %+v", snap.Regions)
	}

	// Application scope: sibling becomes an applicationWindow region.
	snap, err = newResolver(backend, nil).Resolve(emptyCache(), Params{FullApplication: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(snap.Regions) != 1 || snap.Regions[0].Purpose != snapshot.PurposeApplicationWindow {
		t.Fatalf("application scope regions = %+v", snap.Regions)
	}
}

func TestResolveOverlayWindowsIgnored(t *testing.T) {
	veil := normalWindow(7, 99, "softveil", geometry.Rect{Width: 1920, Height: 1080})
	app := normalWindow(1, 10, "Editor", geometry.Rect{X: 10, Y: 10, Width: 600, Height: 400})
	backend := &fakeBackend{
		windows:  []platform.WindowInfo{veil, app},
		frontPID: 10, frontOK: true,
	}

	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{
		OverlayWindows: map[platform.WindowID]bool{7: true},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Frame.ApproxEqual(app.Bounds, snapshot.Tolerance) {
		t.Fatalf("overlay window picked as primary: %+v", snap.Frame)
	}
}

func TestResolveCapFallsBackToFullList(t *testing.T) {
	caps := Caps(GenerationModern)
	windows := make([]platform.WindowInfo, 0, caps.CandidateCap+1)
	// The topmost entries are all sub-minimum decorations.
	for i := 0; i < caps.CandidateCap; i++ {
		windows = append(windows, platform.WindowInfo{
			ID: platform.WindowID(100 + i), PID: 50, OwnerName: "decor",
			Layer: platform.LayerNormal, Alpha: 1,
			Bounds: geometry.Rect{X: float64(i), Y: 0, Width: 8, Height: 8},
		})
	}
	usable := normalWindow(1, 10, "Editor", geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	windows = append(windows, usable)

	backend := &fakeBackend{windows: windows, frontPID: 10, frontOK: true}
	snap, err := newResolver(backend, nil).Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Frame.ApproxEqual(usable.Bounds, snapshot.Tolerance) {
		t.Fatalf("full-list fallback not used, frame = %+v", snap.Frame)
	}
}

func TestResolveIntrospectionFallback(t *testing.T) {
	focused := geometry.Rect{X: 40, Y: 40, Width: 500, Height: 400}
	adapter := &fakeAdapter{
		trusted: true,
		windows: map[int][]introspect.Window{
			10: {{Frame: focused, Title: "Doc", Focused: true}},
		},
	}
	backend := &fakeBackend{frontPID: 10, frontOK: true} // window server sees nothing

	snap, err := newResolver(backend, nil).Resolve(introspect.NewCache(adapter), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Frame.ApproxEqual(focused, snapshot.Tolerance) {
		t.Fatalf("introspection fallback frame = %+v", snap.Frame)
	}

	// Without permission the fallback yields nothing.
	snap, err = newResolver(backend, nil).Resolve(introspect.NewCache(&fakeAdapter{}), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !snap.Empty() {
		t.Fatalf("untrusted fallback must be empty, got %+v", snap)
	}
}

func TestResolveRadiusFromIntrospection(t *testing.T) {
	frame := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	radius := 12.0
	adapter := &fakeAdapter{
		trusted: true,
		geo: map[int][]introspect.WindowGeometry{
			10: {{Frame: frame, CornerRadius: &radius}},
		},
	}
	backend := &fakeBackend{
		windows:  []platform.WindowInfo{normalWindow(1, 10, "Editor", frame)},
		frontPID: 10, frontOK: true,
	}

	snap, err := newResolver(backend, nil).Resolve(introspect.NewCache(adapter), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snap.CornerRadius != radius {
		t.Fatalf("radius = %v, want introspected %v", snap.CornerRadius, radius)
	}
}

func TestResolveSettingsCarveOut(t *testing.T) {
	primary := normalWindow(1, 10, "Editor", geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	settings := platform.WindowInfo{
		ID: 2, PID: 20, OwnerName: "Capture", Layer: platform.LayerFloating, Alpha: 1,
		Title:  "Capture Settings",
		Bounds: geometry.Rect{X: 200, Y: 200, Width: 400, Height: 300},
	}
	recording := platform.WindowInfo{
		ID: 3, PID: 20, OwnerName: "Capture", Layer: platform.LayerFloating, Alpha: 1,
		Title:  "Recording in progress",
		Bounds: geometry.Rect{X: 700, Y: 200, Width: 400, Height: 300},
	}
	backend := &fakeBackend{
		windows:  []platform.WindowInfo{primary, settings, recording},
		frontPID: 10, frontOK: true,
	}
	r := newResolver(backend, []config.ExclusionRule{
		{App: "Capture", Treatment: config.TreatmentExceptSettings},
	})

	snap, err := r.Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(snap.Regions) != 1 {
		t.Fatalf("regions = %+v, want only the settings surface", snap.Regions)
	}
	if !snap.Regions[0].Frame.ApproxEqual(settings.Bounds, snapshot.Tolerance) {
		t.Fatalf("kept region = %+v, want settings window", snap.Regions[0])
	}
}

func TestResolveForcedMasking(t *testing.T) {
	primary := normalWindow(1, 10, "Editor", geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	other := normalWindow(2, 30, "Presenter", geometry.Rect{X: 900, Y: 0, Width: 800, Height: 600})
	backend := &fakeBackend{
		windows:  []platform.WindowInfo{primary, other},
		frontPID: 10, frontOK: true,
	}
	r := newResolver(backend, []config.ExclusionRule{
		{App: "Presenter", Treatment: config.TreatmentNever},
	})

	snap, err := r.Resolve(emptyCache(), Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(snap.Regions) != 1 || snap.Regions[0].Purpose != snapshot.PurposeApplicationWindow {
		t.Fatalf("forced window missing from regions: %+v", snap.Regions)
	}
}

func TestTransientHeuristic(t *testing.T) {
	caps := Caps(GenerationModern)
	tests := []struct {
		name  string
		win   platform.WindowInfo
		title string
		want  bool
	}{
		{
			name: "owner keyword",
			win:  platform.WindowInfo{OwnerName: "gtk-menu", Bounds: geometry.Rect{Width: 900, Height: 900}},
			want: true,
		},
		{
			name: "popup layer",
			win:  platform.WindowInfo{Layer: platform.LayerPopUpMenu, Bounds: geometry.Rect{Width: 2000, Height: 1500}},
			want: true,
		},
		{
			name: "elevated layer threshold",
			win:  platform.WindowInfo{Layer: caps.TransientLayerMin, Bounds: geometry.Rect{Width: 2000, Height: 1500}},
			want: true,
		},
		{
			name:  "title keyword",
			win:   platform.WindowInfo{OwnerName: "app", Bounds: geometry.Rect{Width: 900, Height: 900}},
			title: "Context actions",
			want:  true,
		},
		{
			name: "small and floating",
			win:  platform.WindowInfo{OwnerName: "app", Layer: platform.LayerFloating, Bounds: geometry.Rect{Width: 300, Height: 200}},
			want: true,
		},
		{
			name: "small unnamed base layer",
			win:  platform.WindowInfo{Bounds: geometry.Rect{Width: 300, Height: 200}},
			want: true,
		},
		{
			name: "ordinary document window",
			win:  platform.WindowInfo{OwnerName: "Editor", Bounds: geometry.Rect{Width: 1200, Height: 800}},
			want: false,
		},
		{
			name: "small named base layer",
			win:  platform.WindowInfo{OwnerName: "app", Layer: platform.LayerNormal, Bounds: geometry.Rect{Width: 300, Height: 200}},
			want: false,
		},
		{
			name: "large floating window",
			win:  platform.WindowInfo{OwnerName: "app", Layer: platform.LayerFloating, Bounds: geometry.Rect{Width: 1600, Height: 1200}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientSurface(tt.win, tt.title, caps); got != tt.want {
				t.Fatalf("isTransientSurface = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationForServerRelease(t *testing.T) {
	if got := GenerationForServerRelease(11804000); got != GenerationLegacy {
		t.Fatalf("old release mapped to %v", got)
	}
	if got := GenerationForServerRelease(12101002); got != GenerationModern {
		t.Fatalf("new release mapped to %v", got)
	}
}
