package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleTransforms = []Transform{
	Identity(),
	{X: 120, Y: -45, K: 0.4},
	{X: -300.5, Y: 800, K: 2},
	{X: 17, Y: 3, K: 1.37},
}

var samplePoints = []Point{
	{0, 0}, {400, 300}, {-1200, 55.5}, {1e5, -1e5}, {0.001, 999},
}

func TestScreenWorld_RoundTrip(t *testing.T) {
	for _, tr := range sampleTransforms {
		for _, p := range samplePoints {
			got := WorldToScreen(ScreenToWorld(p, tr), tr)
			assert.InDelta(t, p.X, got.X, 1e-6)
			assert.InDelta(t, p.Y, got.Y, 1e-6)
		}
	}
}

func TestZoomAt_ClampsK(t *testing.T) {
	factors := []float64{0, -3, 1e-9, 0.5, 1, 1.1, 7, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, tr := range sampleTransforms {
		for _, f := range factors {
			got := ZoomAt(tr, f, Point{100, 100})
			assert.GreaterOrEqual(t, got.K, MinZoom)
			assert.LessOrEqual(t, got.K, MaxZoom)
			assert.False(t, math.IsNaN(got.X) || math.IsNaN(got.Y))
		}
	}
}

func TestZoomAt_PreservesPivot(t *testing.T) {
	for _, tr := range sampleTransforms {
		for _, pivot := range samplePoints {
			for _, f := range []float64{0.3, 0.9, 1.1, 1.8, 5} {
				before := ScreenToWorld(pivot, tr)
				after := ScreenToWorld(pivot, ZoomAt(tr, f, pivot))
				assert.InDelta(t, before.X, after.X, 1e-6)
				assert.InDelta(t, before.Y, after.Y, 1e-6)
			}
		}
	}
}

func TestZoomAt_PivotScenario(t *testing.T) {
	tr := Transform{X: 300, Y: 200, K: 1}
	pivot := Point{400, 300}
	assert.Equal(t, Point{100, 100}, ScreenToWorld(pivot, tr))

	zoomed := ZoomAt(tr, 2, pivot)
	assert.Equal(t, 2.0, zoomed.K)
	assert.Equal(t, Point{100, 100}, ScreenToWorld(pivot, zoomed))
	assert.Equal(t, Transform{X: 200, Y: 100, K: 2}, zoomed)
}

func TestSetZoomAt_Clamps(t *testing.T) {
	assert.Equal(t, MaxZoom, SetZoomAt(Identity(), 10, Point{}).K)
	assert.Equal(t, MinZoom, SetZoomAt(Identity(), 0.01, Point{}).K)
	assert.Equal(t, Identity(), SetZoomAt(Identity(), math.NaN(), Point{}))
}

func TestPan_KeepsZoom(t *testing.T) {
	tr := Transform{X: 10, Y: 20, K: 1.5}
	got := Pan(tr, 50, 30)
	assert.Equal(t, Transform{X: 60, Y: 50, K: 1.5}, got)
	assert.Equal(t, tr, Pan(tr, math.Inf(1), 0))
}

func TestResetZoom_OriginAtViewportCentre(t *testing.T) {
	vp := Size{Width: 800, Height: 600}
	tr := ResetZoom(vp)
	assert.Equal(t, 1.0, tr.K)
	assert.Equal(t, Point{0, 0}, ScreenToWorld(Point{400, 300}, tr))
}

func TestCenterOn_KeepsZoom(t *testing.T) {
	vp := Size{Width: 800, Height: 600}
	tr := CenterOn(Transform{X: 5, Y: 5, K: 0.5}, Point{1000, -200}, vp)
	assert.Equal(t, 0.5, tr.K)
	got := ScreenToWorld(Point{400, 300}, tr)
	assert.InDelta(t, 1000, got.X, 1e-9)
	assert.InDelta(t, -200, got.Y, 1e-9)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, Transform{K: 1}, Sanitize(Transform{}))
	assert.Equal(t, Transform{X: 0, Y: 4, K: MaxZoom}, Sanitize(Transform{X: math.NaN(), Y: 4, K: 9}))
}

func TestRect(t *testing.T) {
	r := RectFromPoints(Point{10, 40}, Point{-10, 0})
	assert.Equal(t, Rect{X: -10, Y: 0, Width: 20, Height: 40}, r)
	assert.True(t, r.Contains(Point{0, 20}))
	assert.False(t, r.Contains(Point{11, 20}))
	assert.True(t, r.Intersects(Rect{X: 5, Y: 5, Width: 100, Height: 1}))
	assert.False(t, r.Intersects(Rect{X: 50, Y: 0, Width: 5, Height: 5}))
	assert.Equal(t, Rect{X: -10, Y: 0, Width: 110, Height: 40}, r.Union(Rect{X: 90, Y: 10, Width: 10, Height: 10}))
}
