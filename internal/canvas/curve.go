package canvas

import (
	"fmt"
	"math"

	"nodeflow/internal/domain"
)

const (
	MinControlOffset = 24.0
	MaxControlOffset = 80.0

	// VisibleStrokeWidth is the drawn width of a connection, in world units.
	VisibleStrokeWidth = 2.0
	// HitStrokeWidth is the width of the invisible stroke behind each
	// connection that receives clicks and taps.
	HitStrokeWidth = 20.0
	// DisconnectButtonSize is the side of the disconnect affordance drawn at
	// the curve midpoint.
	DisconnectButtonSize = 24.0

	curveSamples = 32
)

// Curve is the cubic Bézier drawn for a connection, in world space.
type Curve struct {
	Start         Point   `json:"start"`
	C1            Point   `json:"c1"`
	C2            Point   `json:"c2"`
	End           Point   `json:"end"`
	ControlOffset float64 `json:"controlOffset"`
}

// OutputAnchor is the right-edge midpoint of a node, where connections start.
func OutputAnchor(n domain.Node) Point {
	return Point{X: n.X + n.Width, Y: n.Y + n.Height/2}
}

// InputAnchor is the left-edge midpoint of a node, where connections end.
func InputAnchor(n domain.Node) Point {
	return Point{X: n.X, Y: n.Y + n.Height/2}
}

// ControlOffset is the horizontal distance of each control point from its
// endpoint: half the horizontal span, kept within [MinControlOffset, MaxControlOffset].
func ControlOffset(dx float64) float64 {
	return clamp(math.Abs(dx)/2, MinControlOffset, MaxControlOffset)
}

// CurveBetween builds the connection curve from source's output anchor to
// target's input anchor.
func CurveBetween(source, target domain.Node) Curve {
	return CurveFrom(OutputAnchor(source), InputAnchor(target))
}

// CurveFrom builds a connection curve between two anchor points.
func CurveFrom(start, end Point) Curve {
	cp := ControlOffset(end.X - start.X)
	return Curve{
		Start:         start,
		C1:            Point{start.X + cp, start.Y},
		C2:            Point{end.X - cp, end.Y},
		End:           end,
		ControlOffset: cp,
	}
}

// At evaluates the curve at parameter t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

// Midpoint is where the disconnect affordance is placed. For this curve shape
// it equals At(0.5).
func (c Curve) Midpoint() Point {
	return Point{X: (c.Start.X + c.End.X) / 2, Y: (c.Start.Y + c.End.Y) / 2}
}

// DisconnectRect is the world rectangle of the disconnect affordance.
func (c Curve) DisconnectRect() Rect {
	m := c.Midpoint()
	half := DisconnectButtonSize / 2
	return Rect{X: m.X - half, Y: m.Y - half, Width: DisconnectButtonSize, Height: DisconnectButtonSize}
}

// PathData renders the curve as an SVG path.
func (c Curve) PathData() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		c.Start.X, c.Start.Y, c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
}

// DistanceTo approximates the distance from p to the curve by sampling it
// as a polyline.
func (c Curve) DistanceTo(p Point) float64 {
	best := math.Inf(1)
	prev := c.Start
	for i := 1; i <= curveSamples; i++ {
		next := c.At(float64(i) / curveSamples)
		if d := segmentDistance(p, prev, next); d < best {
			best = d
		}
		prev = next
	}
	return best
}

// Hit reports whether p falls on the hit stroke of the curve.
func (c Curve) Hit(p Point) bool {
	return c.DistanceTo(p) <= HitStrokeWidth/2
}

// Bounds returns the bounding box of the curve's control polygon, which
// contains the curve.
func (c Curve) Bounds() Rect {
	r := RectFromPoints(c.Start, c.End)
	r = r.Union(RectFromPoints(c.C1, c.C2))
	return r
}

func segmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l2, 0, 1)
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
