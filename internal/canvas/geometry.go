// Package canvas is the interaction engine of the node-graph editor: the
// pan/zoom transform, the node registry, connections and their hit-testing,
// the drag-mode state machine, grouping and selection, and the minimap.
//
// The engine is single-threaded. A Session must be driven by one goroutine at
// a time; callers that receive input on several goroutines serialise access
// themselves (see service.CanvasService).
package canvas

import "math"

const (
	MinZoom = 0.4
	MaxZoom = 2.0

	// WheelZoomFactor is the zoom step applied per wheel notch.
	WheelZoomFactor = 1.1
)

// Point is a 2D coordinate, in screen or world space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) finite() bool { return finite(p.X) && finite(p.Y) }

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the rectangle spanned by two corners in any order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Center() Point   { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether r and o overlap, touching edges included.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.Right() && r.Right() >= o.X && r.Y <= o.Bottom() && r.Bottom() >= o.Y
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Inset grows r by d on every side (shrinks when d is negative).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Transform maps world space to screen space: screen = world*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform with no pan and zoom 1.
func Identity() Transform { return Transform{K: 1} }

// ClampZoom limits k to [MinZoom, MaxZoom]. NaN maps to 1.
func ClampZoom(k float64) float64 {
	if math.IsNaN(k) {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, k))
}

// ScreenToWorld converts a screen point to world space.
func ScreenToWorld(p Point, t Transform) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// WorldToScreen converts a world point to screen space.
func WorldToScreen(p Point, t Transform) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// ScreenRect converts a world rectangle to screen space.
func ScreenRect(r Rect, t Transform) Rect {
	o := WorldToScreen(Point{r.X, r.Y}, t)
	return Rect{X: o.X, Y: o.Y, Width: r.Width * t.K, Height: r.Height * t.K}
}

// ZoomAt multiplies the zoom by factor, clamped to [MinZoom, MaxZoom], keeping
// the world point under pivot (a screen point) fixed on screen.
// A non-finite or non-positive factor returns t unchanged.
func ZoomAt(t Transform, factor float64, pivot Point) Transform {
	if !finite(factor) || factor <= 0 {
		return t
	}
	return SetZoomAt(t, t.K*factor, pivot)
}

// SetZoomAt sets the zoom to k (clamped), anchored at pivot.
func SetZoomAt(t Transform, k float64, pivot Point) Transform {
	if !finite(k) || !pivot.finite() {
		return t
	}
	k = ClampZoom(k)
	w := ScreenToWorld(pivot, t)
	return Transform{
		X: pivot.X - w.X*k,
		Y: pivot.Y - w.Y*k,
		K: k,
	}
}

// Pan shifts the transform by a screen-space delta. K is unchanged.
func Pan(t Transform, dx, dy float64) Transform {
	if !finite(dx) || !finite(dy) {
		return t
	}
	return Transform{X: t.X + dx, Y: t.Y + dy, K: t.K}
}

// ResetZoom returns a transform with K = 1 that places the world origin at the
// centre of a viewport of the given size. With an unknown (zero) viewport the
// origin is placed at the screen origin.
func ResetZoom(viewport Size) Transform {
	return Transform{X: viewport.Width / 2, Y: viewport.Height / 2, K: 1}
}

// CenterOn keeps t.K and pans so that world point w sits at the centre of
// the viewport.
func CenterOn(t Transform, w Point, viewport Size) Transform {
	if !w.finite() {
		return t
	}
	return Transform{
		X: viewport.Width/2 - w.X*t.K,
		Y: viewport.Height/2 - w.Y*t.K,
		K: t.K,
	}
}

// Sanitize repairs a transform loaded from outside the engine: K is clamped
// and non-finite offsets are zeroed.
func Sanitize(t Transform) Transform {
	if t.K == 0 {
		t.K = 1
	}
	t.K = ClampZoom(t.K)
	if !finite(t.X) {
		t.X = 0
	}
	if !finite(t.Y) {
		t.Y = 0
	}
	return t
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
