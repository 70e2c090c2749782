// Package labels picks the attribute meters are labeled by on the map.
package labels

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/covgis/meters/internal/mapview"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
	"github.com/covgis/meters/internal/tui/util"
)

// Router is the slice of the app the labels panel drives.
type Router interface {
	SetLabeling(l mapview.Labeling)
}

type Component interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
	layout.Focusable
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Toggle key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "previous field")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next field")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "label by field")),
	Toggle: key.NewBinding(key.WithKeys(" ", "v"), key.WithHelp("space", "show/hide labels")),
}

const (
	zonePrefix = "label-"
	zoneToggle = "label-toggle"
)

type labelsCmp struct {
	router  Router
	current func() mapview.Labeling
	cursor  int
	width   int
	height  int
	focused bool
}

func (l *labelsCmp) Init() tea.Cmd {
	return nil
}

func (l *labelsCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return l, nil
		}
		if zone.Get(zoneToggle).InBounds(msg) {
			l.toggle()
			return l, nil
		}
		for i := range mapview.LabelFields {
			if zone.Get(zonePrefix + strconv.Itoa(i)).InBounds(msg) {
				l.cursor = i
				l.choose()
				return l, nil
			}
		}
	case tea.KeyMsg:
		if !l.focused {
			return l, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			l.cursor = util.Clamp(l.cursor-1, 0, len(mapview.LabelFields)-1)
		case key.Matches(msg, keys.Down):
			l.cursor = util.Clamp(l.cursor+1, 0, len(mapview.LabelFields)-1)
		case key.Matches(msg, keys.Choose):
			l.choose()
		case key.Matches(msg, keys.Toggle):
			l.toggle()
		}
	}
	return l, nil
}

func (l *labelsCmp) choose() {
	cur := l.current()
	cur.Field = mapview.LabelFields[l.cursor]
	cur.Visible = true
	l.router.SetLabeling(cur)
}

func (l *labelsCmp) toggle() {
	cur := l.current()
	cur.Visible = !cur.Visible
	l.router.SetLabeling(cur)
}

func (l *labelsCmp) View() string {
	cur := l.current()
	var b strings.Builder

	check := "[ ]"
	if cur.Visible {
		check = "[" + styles.CheckIcon + "]"
	}
	b.WriteString(zone.Mark(zoneToggle, check+" Show labels"))
	b.WriteString("\n\n")
	b.WriteString(styles.Muted().Render("Label meters by"))
	b.WriteString("\n")

	for i, field := range mapview.LabelFields {
		radio := "( )"
		if field == cur.Field {
			radio = "(•)"
		}
		style := styles.BaseStyle()
		if l.focused && i == l.cursor {
			style = style.Foreground(styles.Primary).Bold(true)
		}
		line := style.Render(radio + " " + field)
		b.WriteString(zone.Mark(zonePrefix+strconv.Itoa(i), line))
		b.WriteString("\n")
	}
	return b.String()
}

func (l *labelsCmp) SetSize(width, height int) tea.Cmd {
	l.width = width
	l.height = height
	return nil
}

func (l *labelsCmp) GetSize() (int, int) {
	return l.width, l.height
}

func (l *labelsCmp) BindingKeys() []key.Binding {
	return layout.KeyMapToSlice(keys)
}

func (l *labelsCmp) Focus() tea.Cmd {
	l.focused = true
	return nil
}

func (l *labelsCmp) Blur() tea.Cmd {
	l.focused = false
	return nil
}

func (l *labelsCmp) IsFocused() bool {
	return l.focused
}

// New builds the panel; current reads the layer's labeling at render time.
func New(router Router, current func() mapview.Labeling) Component {
	return &labelsCmp{router: router, current: current}
}
