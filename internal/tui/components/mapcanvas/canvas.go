// Package mapcanvas draws the map view into the terminal and turns clicks
// and keys into map taps and navigation.
package mapcanvas

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/covgis/meters/internal/mapview"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
)

const zoneID = "map"

// Router is the slice of the app the canvas drives.
type Router interface {
	Tap(pt mapview.ScreenPoint) tea.Cmd
}

type Component interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
	layout.Focusable
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Tap     key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "pan north")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "pan south")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "pan west")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "pan east")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Tap:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select at center")),
}

var cellStyles = map[mapview.CellKind]lipgloss.Style{
	mapview.CellEmpty:     lipgloss.NewStyle(),
	mapview.CellGraphic:   lipgloss.NewStyle().Foreground(styles.Info),
	mapview.CellHighlight: lipgloss.NewStyle().Foreground(styles.Highlight).Bold(true),
	mapview.CellLabel:     lipgloss.NewStyle().Foreground(styles.TextMuted),
}

type canvasCmp struct {
	router  Router
	view    *mapview.View
	focused bool
}

func (c *canvasCmp) Init() tea.Cmd {
	return nil
}

func (c *canvasCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if !zone.Get(zoneID).InBounds(msg) {
			return c, nil
		}
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			c.zoom(0.5)
		case msg.Button == tea.MouseButtonWheelDown:
			c.zoom(2)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease:
			x, y := zone.Get(zoneID).Pos(msg)
			if x < 0 || y < 0 {
				return c, nil
			}
			return c, c.router.Tap(mapview.ScreenPoint{X: x, Y: y})
		}
		return c, nil

	case tea.KeyMsg:
		if !c.focused {
			return c, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			c.pan(0, -1)
		case key.Matches(msg, keys.Down):
			c.pan(0, 1)
		case key.Matches(msg, keys.Left):
			c.pan(-1, 0)
		case key.Matches(msg, keys.Right):
			c.pan(1, 0)
		case key.Matches(msg, keys.ZoomIn):
			c.zoom(0.5)
		case key.Matches(msg, keys.ZoomOut):
			c.zoom(2)
		case key.Matches(msg, keys.Tap):
			w, h := c.view.Size()
			return c, c.router.Tap(mapview.ScreenPoint{X: w / 2, Y: h / 2})
		}
	}
	return c, nil
}

// pan moves the view a quarter of its size in the given direction.
func (c *canvasCmp) pan(dx, dy int) {
	w, h := c.view.Size()
	c.view.Center(c.view.ToMap(mapview.ScreenPoint{
		X: w/2 + dx*max(1, w/4),
		Y: h/2 + dy*max(1, h/4),
	}))
}

func (c *canvasCmp) zoom(factor float64) {
	c.view.SetScale(c.view.Scale() * factor)
}

func (c *canvasCmp) View() string {
	return zone.Mark(zoneID, Render(c.view.Rasterize()))
}

// Render styles a raster, one lipgloss run per stretch of equal cells.
func Render(r mapview.Raster) string {
	var b strings.Builder
	for y, row := range r {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].Kind == row[start].Kind {
				continue
			}
			var run strings.Builder
			for _, cell := range row[start:x] {
				run.WriteRune(cell.Rune)
			}
			if row[start].Kind == mapview.CellEmpty {
				b.WriteString(run.String())
			} else {
				b.WriteString(cellStyles[row[start].Kind].Render(run.String()))
			}
			start = x
		}
	}
	return b.String()
}

func (c *canvasCmp) SetSize(width, height int) tea.Cmd {
	c.view.SetSize(max(1, width), max(1, height))
	return nil
}

func (c *canvasCmp) GetSize() (int, int) {
	return c.view.Size()
}

func (c *canvasCmp) BindingKeys() []key.Binding {
	return layout.KeyMapToSlice(keys)
}

func (c *canvasCmp) Focus() tea.Cmd {
	c.focused = true
	return nil
}

func (c *canvasCmp) Blur() tea.Cmd {
	c.focused = false
	return nil
}

func (c *canvasCmp) IsFocused() bool {
	return c.focused
}

func New(view *mapview.View, router Router) Component {
	return &canvasCmp{router: router, view: view}
}
