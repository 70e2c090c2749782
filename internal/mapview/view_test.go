package mapview

import (
	"context"
	"testing"

	"github.com/covgis/meters/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meter(oid int64, x, y float64, attrs feature.Attributes) feature.Feature {
	return feature.Feature{ObjectID: oid, Geometry: feature.Point{X: x, Y: y}, Attributes: attrs}
}

func newTestView() (*View, *LayerView, *LayerView) {
	v := NewView(10, 10)
	v.Center(feature.Point{})
	v.SetScale(24000)
	meters := v.AddLayer("meters", "Water Meters")
	hydrants := v.AddLayer("hydrants", "Hydrants")
	return v, meters, hydrants
}

func TestViewScreenRoundTrip(t *testing.T) {
	t.Parallel()
	v, _, _ := newTestView()

	sp, ok := v.ToScreen(feature.Point{X: 20, Y: -20})
	require.True(t, ok)
	assert.Equal(t, ScreenPoint{X: 5, Y: 5}, sp)

	back, ok := v.ToScreen(v.ToMap(sp))
	require.True(t, ok)
	assert.Equal(t, sp, back)

	_, ok = v.ToScreen(feature.Point{X: 1000, Y: 0})
	assert.False(t, ok)
}

func TestViewGoToFitsExtent(t *testing.T) {
	t.Parallel()
	v := NewView(80, 24)
	target := feature.Extent{XMin: -13713000, YMin: 5757000, XMax: -13710000, YMax: 5760000}

	v.GoTo(target)

	got := v.Extent()
	assert.InDelta(t, target.Center().X, got.Center().X, 1e-6)
	assert.InDelta(t, target.Center().Y, got.Center().Y, 1e-6)
	assert.GreaterOrEqual(t, got.Width(), target.Width()-1e-6)
	assert.GreaterOrEqual(t, got.Height(), target.Height()-1e-6)

	scale := v.Scale()
	v.GoTo(feature.ExtentOf(feature.Point{X: 1, Y: 2}))
	assert.Equal(t, scale, v.Scale(), "a point extent only recenters")
	assert.Equal(t, feature.Point{X: 1, Y: 2}, v.CenterPoint())
}

func TestHitTestOrdersTopLayerFirst(t *testing.T) {
	t.Parallel()
	v, meters, hydrants := newTestView()
	meters.SetGraphics([]feature.Feature{
		meter(1, 20, -20, nil),
		meter(2, 20, 200, nil),
		meter(3, 1000, 0, nil),
	})
	hydrants.SetGraphics([]feature.Feature{meter(9, 80, -20, nil)})

	hits, err := v.HitTest(context.Background(), ScreenPoint{X: 5, Y: 5})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "hydrants", hits[0].LayerID)
	assert.Equal(t, int64(9), hits[0].Feature.ObjectID)
	assert.Equal(t, "meters", hits[1].LayerID)
	assert.Equal(t, "meters", hits[1].Feature.LayerID)
	assert.Equal(t, int64(1), hits[1].Feature.ObjectID)
}

func TestHitTestEmptyAndCancelled(t *testing.T) {
	t.Parallel()
	v, _, _ := newTestView()

	hits, err := v.HitTest(context.Background(), ScreenPoint{X: 0, Y: 0})
	require.NoError(t, err)
	assert.Empty(t, hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.HitTest(ctx, ScreenPoint{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHighlightHandles(t *testing.T) {
	t.Parallel()
	_, meters, _ := newTestView()
	f := meter(1, 0, 0, nil)

	h1 := meters.Highlight(f)
	h2 := meters.Highlight(f)
	assert.True(t, meters.IsHighlighted(1))
	assert.Equal(t, 2, meters.HighlightCount())

	h1.Remove()
	h1.Remove()
	assert.Equal(t, 1, meters.HighlightCount(), "removing a handle twice releases once")
	assert.True(t, meters.IsHighlighted(1))

	h2.Remove()
	assert.False(t, meters.IsHighlighted(1))
	assert.Zero(t, meters.HighlightCount())
}

func TestLabeling(t *testing.T) {
	t.Parallel()

	radio := meter(1, 0, 0, feature.Attributes{feature.FieldRegisterNo: "R-77", feature.FieldServiceID: "W-1"})
	manual := meter(2, 0, 0, feature.Attributes{feature.FieldRegisterNo: nil, feature.FieldServiceID: "W-2"})

	byRegister := Labeling{Field: feature.FieldRegisterNo}
	assert.Equal(t, "R-77", byRegister.Label(radio))
	assert.Equal(t, "Non-radio", byRegister.Label(manual))
	assert.Equal(t, "W-2", Labeling{Field: feature.FieldServiceID}.Label(manual))

	assert.Equal(t, feature.FieldAddress, Labeling{Field: feature.FieldServiceID}.NextField())
	assert.Equal(t, feature.FieldServiceID, Labeling{Field: feature.FieldMeterSize}.NextField())
	assert.Equal(t, feature.FieldServiceID, Labeling{Field: "UNKNOWN"}.NextField())
}

func TestRasterize(t *testing.T) {
	t.Parallel()
	v, meters, _ := newTestView()
	f := meter(1, 20, -20, feature.Attributes{feature.FieldServiceID: "W1"})
	meters.SetGraphics([]feature.Feature{f})
	meters.SetLabeling(Labeling{Field: feature.FieldServiceID, Visible: true})

	r := v.Rasterize()
	require.Len(t, r, 10)
	assert.Equal(t, Cell{Rune: '•', Kind: CellGraphic}, r[5][5])
	assert.Equal(t, Cell{Rune: 'W', Kind: CellLabel}, r[5][7])
	assert.Equal(t, Cell{Rune: '1', Kind: CellLabel}, r[5][8])

	h := meters.Highlight(f)
	defer h.Remove()
	r = v.Rasterize()
	assert.Equal(t, CellHighlight, r[5][5].Kind)
}

func TestLayerMinScale(t *testing.T) {
	t.Parallel()
	v, meters, _ := newTestView()
	meters.SetGraphics([]feature.Feature{meter(1, 20, -20, nil)})
	meters.SetMinScale(20000)

	hits, err := v.HitTest(context.Background(), ScreenPoint{X: 5, Y: 5})
	require.NoError(t, err)
	assert.Empty(t, hits, "hidden layer is not hit")
	assert.Equal(t, CellEmpty, v.Rasterize()[5][5].Kind)

	v.SetScale(20000)
	assert.True(t, meters.VisibleAt(v.Scale()))
	sp, ok := v.ToScreen(feature.Point{X: 20, Y: -20})
	require.True(t, ok)
	assert.Equal(t, CellGraphic, v.Rasterize()[sp.Y][sp.X].Kind)
}
