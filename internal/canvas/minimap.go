package canvas

import "math"

// DefaultWorldExtent is the side of the origin-centred world box shown by the
// minimap when the canvas has no nodes.
const DefaultWorldExtent = 1000.0

// Minimap is a fixed-size overview panel of the whole canvas.
type Minimap struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"` // world units added around the node bounds
}

// DefaultMinimap is the panel used when none is configured.
var DefaultMinimap = Minimap{Width: 200, Height: 140, Padding: 40}

// MinimapView is everything needed to draw the minimap. All rectangles
// except World are in minimap pixels.
type MinimapView struct {
	World    Rect    `json:"world"`
	Scale    float64 `json:"scale"`
	Offset   Point   `json:"offset"`
	Nodes    []Rect  `json:"nodes"`
	Viewport Rect    `json:"viewport"`
}

// WorldBounds is the world area the minimap covers: the padded bounding box of
// nodes, or an origin-centred DefaultWorldExtent box when there are none.
func (m Minimap) WorldBounds(nodes []Rect) Rect {
	if len(nodes) == 0 {
		half := DefaultWorldExtent / 2
		return Rect{X: -half, Y: -half, Width: DefaultWorldExtent, Height: DefaultWorldExtent}
	}
	b := nodes[0]
	for _, r := range nodes[1:] {
		b = b.Union(r)
	}
	b = b.Inset(math.Max(m.Padding, 0))
	// A zero-area box would give an infinite scale.
	if b.Width < 1 {
		b = Rect{X: b.Center().X - 0.5, Y: b.Y, Width: 1, Height: b.Height}
	}
	if b.Height < 1 {
		b = Rect{X: b.X, Y: b.Center().Y - 0.5, Width: b.Width, Height: 1}
	}
	return b
}

func (m Minimap) panel() Minimap {
	p := m
	if p.Width <= 0 || !finite(p.Width) {
		p.Width = DefaultMinimap.Width
	}
	if p.Height <= 0 || !finite(p.Height) {
		p.Height = DefaultMinimap.Height
	}
	return p
}

// Layout projects nodes and the current viewport into the panel, preserving
// aspect ratio and centring the world box.
func (m Minimap) Layout(nodes []Rect, t Transform, viewport Size) MinimapView {
	p := m.panel()
	world := p.WorldBounds(nodes)
	scale := math.Min(p.Width/world.Width, p.Height/world.Height)
	offset := Point{
		X: (p.Width - world.Width*scale) / 2,
		Y: (p.Height - world.Height*scale) / 2,
	}
	project := func(r Rect) Rect {
		return Rect{
			X:      (r.X-world.X)*scale + offset.X,
			Y:      (r.Y-world.Y)*scale + offset.Y,
			Width:  r.Width * scale,
			Height: r.Height * scale,
		}
	}
	view := MinimapView{World: world, Scale: scale, Offset: offset}
	for _, r := range nodes {
		view.Nodes = append(view.Nodes, project(r))
	}
	tl := ScreenToWorld(Point{}, t)
	br := ScreenToWorld(Point{viewport.Width, viewport.Height}, t)
	view.Viewport = project(RectFromPoints(tl, br))
	return view
}

// ToWorld inverse-maps a minimap pixel to world space.
func (v MinimapView) ToWorld(p Point) Point {
	return Point{
		X: (p.X-v.Offset.X)/v.Scale + v.World.X,
		Y: (p.Y-v.Offset.Y)/v.Scale + v.World.Y,
	}
}

// Navigate recentres t on the world point under minimap pixel p, keeping K.
func (m Minimap) Navigate(p Point, nodes []Rect, t Transform, viewport Size) Transform {
	if !p.finite() {
		return t
	}
	view := m.Layout(nodes, t, viewport)
	return CenterOn(t, view.ToWorld(p), viewport)
}
