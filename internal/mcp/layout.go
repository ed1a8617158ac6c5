package mcpserver

import (
	"math"
	"sort"

	"nodeflow/internal/domain"
)

const (
	GridSize = 20.0 // matches the canvas background grid
	Padding  = 60.0 // 3 grid cells between nodes
	MaxRowW  = 1800.0
)

// LayoutEngine handles automatic placement of nodes on the canvas
// so that agent-created nodes don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the next non-overlapping grid position for a node
// of size (newW, newH) given the existing nodes.
func (le *LayoutEngine) NextPosition(existing []domain.Node, newW, newH float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]rect, len(existing))
	for i, n := range existing {
		occupied[i] = rect{
			x: n.X - le.padding,
			y: n.Y - le.padding,
			w: n.Width + le.padding*2,
			h: n.Height + le.padding*2,
		}
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := rect{w: newW, h: newH}
	for y := 0.0; y < 20000; y += le.gridSize {
		for x := 0.0; x+newW <= le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
	}

	// Fallback: below everything
	maxY := 0.0
	for _, n := range existing {
		maxY = math.Max(maxY, n.Y+n.Height)
	}
	return 0, le.snap(maxY + le.padding)
}

// ArrangeGrid places nodes in rows starting from (startX, startY), wrapping
// at the maximum row width. It modifies positions in place and returns nodes.
func (le *LayoutEngine) ArrangeGrid(nodes []domain.Node, startX, startY float64) []domain.Node {
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i := range nodes {
		if x > le.snap(startX) && x+nodes[i].Width > le.snap(startX)+le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		nodes[i].X = x
		nodes[i].Y = y
		rowHeight = math.Max(rowHeight, nodes[i].Height)
		x += le.snap(nodes[i].Width + le.padding)
	}
	return nodes
}

// ArrangeFlow lays nodes out left to right by connection depth: nodes with no
// incoming edge form the first column, and every other node sits one column
// right of its deepest source. Cycles are cut at the node count.
func (le *LayoutEngine) ArrangeFlow(nodes []domain.Node, conns []domain.Connection, startX, startY float64) []domain.Node {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	depth := make([]int, len(nodes))
	for pass := 0; pass < len(nodes); pass++ {
		changed := false
		for _, c := range conns {
			si, ok1 := index[c.SourceID]
			ti, ok2 := index[c.TargetID]
			if !ok1 || !ok2 || si == ti {
				continue
			}
			if d := depth[si] + 1; d > depth[ti] && d < len(nodes) {
				depth[ti] = d
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var columns [][]int
	for i, d := range depth {
		for len(columns) <= d {
			columns = append(columns, nil)
		}
		columns[d] = append(columns[d], i)
	}

	x := le.snap(startX)
	for _, col := range columns {
		if len(col) == 0 {
			continue
		}
		// keep the existing vertical order inside a column
		sort.SliceStable(col, func(a, b int) bool { return nodes[col[a]].Y < nodes[col[b]].Y })
		y := le.snap(startY)
		colWidth := 0.0
		for _, i := range col {
			nodes[i].X = x
			nodes[i].Y = y
			y += le.snap(nodes[i].Height + le.padding)
			colWidth = math.Max(colWidth, nodes[i].Width)
		}
		x += le.snap(colWidth + le.padding)
	}
	return nodes
}
