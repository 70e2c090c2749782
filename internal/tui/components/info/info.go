// Package info renders the selected meter's attribute panel.
package info

import (
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/selection"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
)

const (
	placeholder = "Click a meter on the map or pick a search result."
	zoneClose   = "info-close"
)

// Router is the slice of the app the info panel drives.
type Router interface {
	ClearSelection()
}

type Component interface {
	tea.Model
	layout.Sizeable
}

type infoCmp struct {
	router        Router
	width, height int
	state         selection.State
	renderer      *glamour.TermRenderer
	rendered      string
}

func (i *infoCmp) Init() tea.Cmd {
	return nil
}

func (i *infoCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[selection.State]:
		i.state = msg.Payload
		i.render()
	case tea.MouseMsg:
		if i.state.Mode == selection.Selected &&
			msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft &&
			zone.Get(zoneClose).InBounds(msg) {
			i.router.ClearSelection()
		}
	}
	return i, nil
}

func (i *infoCmp) render() {
	if i.state.Mode != selection.Selected || i.state.Info.IsZero() {
		i.rendered = ""
		return
	}
	md := i.state.Info.Markdown()
	if i.renderer == nil {
		i.rendered = md
		return
	}
	out, err := i.renderer.Render(md)
	if err != nil {
		slog.Error("Failed to render info panel", "error", err)
		i.rendered = md
		return
	}
	i.rendered = strings.Trim(out, "\n")
}

func (i *infoCmp) View() string {
	content := i.rendered
	if content == "" {
		content = styles.Muted().Render(placeholder)
	} else {
		closeBtn := zone.Mark(zoneClose, styles.Muted().Render("[x] close"))
		content = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.PlaceHorizontal(i.width, lipgloss.Right, closeBtn),
			content,
		)
	}
	return lipgloss.NewStyle().
		Width(i.width).
		MaxHeight(i.height).
		Render(content)
}

func (i *infoCmp) SetSize(width, height int) tea.Cmd {
	if width != i.width {
		i.renderer = styles.MarkdownRenderer(max(10, width))
	}
	i.width = width
	i.height = height
	i.render()
	return nil
}

func (i *infoCmp) GetSize() (int, int) {
	return i.width, i.height
}

func New(router Router) Component {
	return &infoCmp{router: router}
}
