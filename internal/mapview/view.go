// Package mapview is the in-terminal stand-in for a map view: it keeps the
// visible extent and scale for a canvas measured in character cells, owns one
// LayerView per drawn layer, and answers hit-tests against cached graphics.
//
// A View is mutated from the UI loop and read from background commands, so
// it guards its own state.
package mapview

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/covgis/meters/internal/feature"
)

const (
	// Screen geometry used to turn a map scale into map units per cell.
	metersPerInch = 0.0254
	dpi           = 96.0
	cellWidthPx   = 8.0
	cellHeightPx  = 16.0

	defaultScale     = 24000
	defaultTolerance = 1
	minScale         = 100
)

// ScreenPoint is a position on the map canvas in cells, origin top-left.
type ScreenPoint struct {
	X int
	Y int
}

// Hit is one hit-test result: a feature and the layer that drew it.
type Hit struct {
	Feature feature.Feature
	LayerID string
}

type View struct {
	mu        sync.RWMutex
	width     int
	height    int
	center    feature.Point
	scale     float64
	tolerance int
	layers    []*LayerView
}

func NewView(width, height int) *View {
	return &View{
		width:     max(width, 1),
		height:    max(height, 1),
		scale:     defaultScale,
		tolerance: defaultTolerance,
	}
}

func (v *View) SetSize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = max(width, 1)
	v.height = max(height, 1)
}

func (v *View) Size() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

func (v *View) Scale() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scale
}

func (v *View) SetScale(scale float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scale = math.Max(scale, minScale)
}

func (v *View) CenterPoint() feature.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.center
}

// Center recenters the view on p without changing scale.
func (v *View) Center(p feature.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = p
}

// GoTo fits extent into the canvas. A zero-area extent only recenters.
func (v *View) GoTo(extent feature.Extent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = extent.Center()
	if extent.IsEmpty() {
		return
	}
	sx := extent.Width() / (float64(v.width) * unitsPerScale(cellWidthPx))
	sy := extent.Height() / (float64(v.height) * unitsPerScale(cellHeightPx))
	v.scale = math.Max(math.Max(sx, sy), minScale)
}

// Extent returns the map area currently covered by the canvas.
func (v *View) Extent() feature.Extent {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.extentLocked()
}

func (v *View) extentLocked() feature.Extent {
	rx, ry := v.resolutionLocked()
	return feature.CenteredAt(v.center, float64(v.width)*rx, float64(v.height)*ry)
}

func (v *View) resolutionLocked() (float64, float64) {
	return v.scale * unitsPerScale(cellWidthPx), v.scale * unitsPerScale(cellHeightPx)
}

func unitsPerScale(cellPx float64) float64 {
	return metersPerInch / dpi * cellPx
}

// ToScreen projects p onto the canvas. ok is false when p falls outside it.
func (v *View) ToScreen(p feature.Point) (ScreenPoint, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.toScreenLocked(p)
}

func (v *View) toScreenLocked(p feature.Point) (ScreenPoint, bool) {
	e := v.extentLocked()
	rx, ry := v.resolutionLocked()
	sp := ScreenPoint{
		X: int(math.Floor((p.X - e.XMin) / rx)),
		Y: int(math.Floor((e.YMax - p.Y) / ry)),
	}
	ok := sp.X >= 0 && sp.X < v.width && sp.Y >= 0 && sp.Y < v.height
	return sp, ok
}

// ToMap returns the map coordinate at the center of the given cell.
func (v *View) ToMap(sp ScreenPoint) feature.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e := v.extentLocked()
	rx, ry := v.resolutionLocked()
	return feature.Point{
		X: e.XMin + (float64(sp.X)+0.5)*rx,
		Y: e.YMax - (float64(sp.Y)+0.5)*ry,
	}
}

// AddLayer registers a layer view. Layers added later draw on top and win
// hit-tests.
func (v *View) AddLayer(id, title string) *LayerView {
	v.mu.Lock()
	defer v.mu.Unlock()
	lv := newLayerView(id, title)
	v.layers = append(v.layers, lv)
	return lv
}

// LayerView returns the view of a registered layer.
func (v *View) LayerView(id string) (*LayerView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, lv := range v.layers {
		if lv.id == id {
			return lv, true
		}
	}
	return nil, false
}

func (v *View) Layers() []*LayerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.layers)
}

// HitTest returns the graphics drawn within the hit tolerance of sp, topmost
// layer first and nearest first within a layer. Layers hidden at the
// current scale are not hit.
func (v *View) HitTest(ctx context.Context, sp ScreenPoint) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	layers := slices.Clone(v.layers)
	tolerance, scale := v.tolerance, v.scale
	type candidate struct {
		hit   Hit
		layer int
		dist  int
	}
	var found []candidate
	for li, lv := range layers {
		if !lv.VisibleAt(scale) {
			continue
		}
		for _, g := range lv.Graphics() {
			gp, ok := v.toScreenLocked(g.Geometry)
			if !ok {
				continue
			}
			d := max(abs(gp.X-sp.X), abs(gp.Y-sp.Y))
			if d > tolerance {
				continue
			}
			found = append(found, candidate{hit: Hit{Feature: g, LayerID: lv.id}, layer: li, dist: d})
		}
	}
	v.mu.RUnlock()

	slices.SortStableFunc(found, func(a, b candidate) int {
		if a.layer != b.layer {
			return b.layer - a.layer
		}
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return cmp.Compare(a.hit.Feature.ObjectID, b.hit.Feature.ObjectID)
	})

	hits := make([]Hit, len(found))
	for i, c := range found {
		hits[i] = c.hit
	}
	return hits, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
