package geometry

import (
	"math"
	"testing"
)

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "overlap",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 50, Y: 50, Width: 100, Height: 100},
			want: Rect{X: 50, Y: 50, Width: 50, Height: 50},
		},
		{
			name: "disjoint",
			a:    Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    Rect{X: 20, Y: 20, Width: 10, Height: 10},
			want: Rect{},
		},
		{
			name: "contained",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 10, Y: 10, Width: 20, Height: 20},
			want: Rect{X: 10, Y: 10, Width: 20, Height: 20},
		},
		{
			name: "edge touch has no area",
			a:    Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    Rect{X: 10, Y: 0, Width: 10, Height: 10},
			want: Rect{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersect(tt.b)
			if got != tt.want {
				t.Fatalf("Intersect = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}
	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 30, Height: 15}
	if got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}

	if got := (Rect{}).Union(b); got != b {
		t.Fatalf("Union with empty = %+v, want %+v", got, b)
	}
}

func TestOutsetNeverNegative(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 4, Height: 4}
	got := r.Outset(-10)
	if got.Width != 0 || got.Height != 0 {
		t.Fatalf("negative outset should clamp dimensions to zero, got %+v", got)
	}
}

func TestApproxEqual(t *testing.T) {
	a := Rect{X: 100, Y: 100, Width: 800, Height: 600}
	b := Rect{X: 100.4, Y: 99.7, Width: 800.2, Height: 600.1}
	if !a.ApproxEqual(b, DefaultTolerance) {
		t.Fatalf("expected %+v and %+v to match within tolerance", a, b)
	}

	c := Rect{X: 101, Y: 100, Width: 800, Height: 600}
	if a.ApproxEqual(c, DefaultTolerance) {
		t.Fatalf("expected %+v and %+v to differ beyond tolerance", a, c)
	}
}

func TestClampRadius(t *testing.T) {
	r := Rect{Width: 100, Height: 40}

	if got := ClampRadius(8, r); got != 8 {
		t.Fatalf("radius within bounds changed: %v", got)
	}
	if got := ClampRadius(30, r); got != 20 {
		t.Fatalf("radius should clamp to half the shorter side, got %v", got)
	}
	if got := ClampRadius(-3, r); got != 0 {
		t.Fatalf("negative radius should clamp to zero, got %v", got)
	}
}

func TestCenterDistance(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 30, Y: 40, Width: 10, Height: 10}
	d := a.Center().DistanceTo(b.Center())
	if math.Abs(d-50) > 1e-9 {
		t.Fatalf("distance = %v, want 50", d)
	}
}
