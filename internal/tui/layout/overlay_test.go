package layout

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestPlaceOverlay(t *testing.T) {
	bg := strings.Join([]string{
		"..........",
		"..........",
		"..........",
	}, "\n")

	t.Run("inside", func(t *testing.T) {
		got := PlaceOverlay(2, 1, "ab\ncd", bg)
		assert.Equal(t, "..........\n..ab......\n..cd......", got)
	})

	t.Run("clamped to the right edge", func(t *testing.T) {
		got := PlaceOverlay(20, 0, "xyz", bg)
		assert.Equal(t, ".......xyz\n..........\n..........", got)
	})

	t.Run("foreground larger than background", func(t *testing.T) {
		fg := "0123456789AB\n1\n2\n3"
		assert.Equal(t, fg, PlaceOverlay(0, 0, fg, bg))
	})

	t.Run("centered", func(t *testing.T) {
		got := PlaceCentered("##", bg)
		assert.Equal(t, "..........\n....##....\n..........", got)
	})
}

func TestKeyMapToSlice(t *testing.T) {
	type keyMap struct {
		Up   key.Binding
		Down key.Binding
		note string
	}
	km := keyMap{
		Up:   key.NewBinding(key.WithKeys("up")),
		Down: key.NewBinding(key.WithKeys("down")),
		note: "ignored",
	}

	bindings := KeyMapToSlice(km)
	assert.Len(t, bindings, 2)
	assert.Equal(t, []string{"up"}, bindings[0].Keys())
	assert.Equal(t, []string{"down"}, bindings[1].Keys())
}
