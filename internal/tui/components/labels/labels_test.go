package labels

import (
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/mapview"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type fakeLayer struct {
	labeling mapview.Labeling
	calls    int
}

func (f *fakeLayer) SetLabeling(l mapview.Labeling) {
	f.labeling = l
	f.calls++
}

func (f *fakeLayer) current() mapview.Labeling { return f.labeling }

func TestChooseFieldShowsLabels(t *testing.T) {
	layer := &fakeLayer{labeling: mapview.Labeling{Field: feature.FieldServiceID}}
	c := New(layer, layer.current)
	c.Focus()

	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, 1, layer.calls)
	assert.Equal(t, mapview.LabelFields[1], layer.labeling.Field)
	assert.True(t, layer.labeling.Visible)
}

func TestToggleKeepsField(t *testing.T) {
	layer := &fakeLayer{labeling: mapview.Labeling{Field: feature.FieldSerialNo, Visible: true}}
	c := New(layer, layer.current)
	c.Focus()

	c.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, mapview.Labeling{Field: feature.FieldSerialNo}, layer.labeling)

	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	assert.True(t, layer.labeling.Visible)
}

func TestBlurredPanelIgnoresKeys(t *testing.T) {
	layer := &fakeLayer{}
	c := New(layer, layer.current)

	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Zero(t, layer.calls)
}

func TestCursorStaysInRange(t *testing.T) {
	layer := &fakeLayer{labeling: mapview.Labeling{Field: feature.FieldServiceID}}
	c := New(layer, layer.current)
	c.Focus()

	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, mapview.LabelFields[0], layer.labeling.Field)

	for range len(mapview.LabelFields) + 2 {
		c.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, mapview.LabelFields[len(mapview.LabelFields)-1], layer.labeling.Field)
}

func TestViewMarksCurrentField(t *testing.T) {
	layer := &fakeLayer{labeling: mapview.Labeling{Field: feature.FieldAddress}}
	c := New(layer, layer.current)

	view := ansi.Strip(zone.Scan(c.View()))
	assert.Contains(t, view, "[ ] Show labels")
	assert.Contains(t, view, "(•) "+feature.FieldAddress)
	assert.Contains(t, view, "( ) "+feature.FieldServiceID)
}
