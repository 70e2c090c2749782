package mapcanvas

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/mapview"
)

type tapRecorder struct {
	taps []mapview.ScreenPoint
}

func (r *tapRecorder) Tap(pt mapview.ScreenPoint) tea.Cmd {
	r.taps = append(r.taps, pt)
	return nil
}

func row(s string, kinds ...mapview.CellKind) []mapview.Cell {
	cells := make([]mapview.Cell, 0, len(s))
	for i, r := range []rune(s) {
		kind := mapview.CellEmpty
		if i < len(kinds) {
			kind = kinds[i]
		}
		cells = append(cells, mapview.Cell{Rune: r, Kind: kind})
	}
	return cells
}

func TestRenderKeepsCellText(t *testing.T) {
	t.Parallel()

	g, h, l, e := mapview.CellGraphic, mapview.CellHighlight, mapview.CellLabel, mapview.CellEmpty
	r := mapview.Raster{
		row("  ● W-1", e, e, g, e, l, l, l),
		row("◉      ", h),
		row("       "),
	}

	out := Render(r)
	lines := strings.Split(ansi.Strip(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ● W-1", lines[0])
	assert.Equal(t, "◉      ", lines[1])
	assert.Equal(t, "       ", lines[2])
	for _, line := range strings.Split(out, "\n") {
		assert.Equal(t, 7, ansi.StringWidth(line))
	}
}

func TestRenderEmptyRaster(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Render(nil))
}

func TestKeysNavigateOnlyWhenFocused(t *testing.T) {
	t.Parallel()

	view := mapview.NewView(20, 10)
	view.SetScale(10000)
	rec := &tapRecorder{}
	c := New(view, rec)

	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	assert.Equal(t, 10000.0, view.Scale(), "blurred canvas ignores keys")

	c.Focus()
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	assert.Equal(t, 5000.0, view.Scale())
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	assert.Equal(t, 10000.0, view.Scale())

	before := view.CenterPoint()
	c.Update(tea.KeyMsg{Type: tea.KeyRight})
	after := view.CenterPoint()
	assert.Greater(t, after.X, before.X)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Greater(t, view.CenterPoint().Y, after.Y)

	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, rec.taps, 1)
	assert.Equal(t, mapview.ScreenPoint{X: 10, Y: 5}, rec.taps[0])
}

func TestSetSizeResizesView(t *testing.T) {
	t.Parallel()

	view := mapview.NewView(1, 1)
	c := New(view, &tapRecorder{})
	c.SetSize(40, 12)
	w, h := c.GetSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 12, h)

	lv := view.AddLayer("meters", "Water Meters")
	lv.SetGraphics([]feature.Feature{{ObjectID: 1, Geometry: view.CenterPoint()}})
	lines := strings.Split(ansi.Strip(Render(view.Rasterize())), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, lines[6], string(lv.Symbol()))
}
