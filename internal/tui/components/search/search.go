// Package search is the typeahead box: a text input feeding the suggestion
// coordinator and the list of its current suggestions.
package search

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/truncate"

	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/suggest"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
	"github.com/covgis/meters/internal/tui/util"
)

// Router is the slice of the app the search box drives.
type Router interface {
	Query(text string) tea.Cmd
	SelectSuggestion(i int) tea.Cmd
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
	Select key.Binding
	Clear  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("↑", "previous suggestion"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("↓", "next suggestion"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "go to meter"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "clear search"),
	),
}

type searchCmp struct {
	router  Router
	input   textinput.Model
	state   suggest.State
	cursor  int
	width   int
	height  int
	focused bool
}

const zonePrefix = "suggestion-"

func (s *searchCmp) Init() tea.Cmd {
	return textinput.Blink
}

func (s *searchCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[suggest.State]:
		s.state = msg.Payload
		s.cursor = util.Clamp(s.cursor, 0, max(0, len(s.state.Items)-1))
		return s, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return s, nil
		}
		for i := range s.state.Items {
			if zone.Get(s.itemZone(i)).InBounds(msg) {
				s.cursor = i
				return s, s.router.SelectSuggestion(i)
			}
		}
		return s, nil

	case tea.KeyMsg:
		if !s.focused {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor = max(0, s.cursor-1)
			return s, nil
		case key.Matches(msg, keys.Down):
			s.cursor = util.Clamp(s.cursor+1, 0, max(0, len(s.state.Items)-1))
			return s, nil
		case key.Matches(msg, keys.Select):
			if len(s.state.Items) == 0 {
				return s, nil
			}
			return s, s.router.SelectSuggestion(s.cursor)
		case key.Matches(msg, keys.Clear):
			s.input.Reset()
			s.cursor = 0
			return s, s.router.Query("")
		}

		before := s.input.Value()
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		if after := s.input.Value(); after != before {
			s.cursor = 0
			return s, tea.Batch(cmd, s.router.Query(after))
		}
		return s, cmd
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *searchCmp) itemZone(i int) string {
	return zonePrefix + strconv.Itoa(i)
}

func (s *searchCmp) View() string {
	lines := []string{s.input.View(), ""}

	switch {
	case s.state.Pending && len(s.state.Items) == 0:
		lines = append(lines, styles.Muted().Render(styles.PendingIcon+" searching"))
	case len(s.state.Items) == 0 && strings.TrimSpace(s.input.Value()) != "":
		lines = append(lines, styles.Muted().Render("no matches"))
	}

	itemWidth := uint(max(1, s.width-2))
	for i, item := range s.state.Items {
		label := truncate.StringWithTail(item.Label, itemWidth, "…")
		style := styles.BaseStyle()
		prefix := "  "
		if i == s.cursor {
			style = style.Foreground(styles.Primary).Bold(true)
			prefix = "› "
		}
		lines = append(lines, zone.Mark(s.itemZone(i), prefix+style.Render(label)))
	}

	return lipgloss.NewStyle().
		Width(s.width).
		MaxHeight(s.height).
		Render(strings.Join(lines, "\n"))
}

func (s *searchCmp) SetSize(width, height int) tea.Cmd {
	s.width = width
	s.height = height
	s.input.Width = max(1, width-lipgloss.Width(s.input.Prompt)-1)
	return nil
}

func (s *searchCmp) GetSize() (int, int) {
	return s.width, s.height
}

func (s *searchCmp) BindingKeys() []key.Binding {
	return layout.KeyMapToSlice(keys)
}

func (s *searchCmp) Focus() tea.Cmd {
	s.focused = true
	return s.input.Focus()
}

func (s *searchCmp) Blur() tea.Cmd {
	s.focused = false
	s.input.Blur()
	return nil
}

func (s *searchCmp) IsFocused() bool {
	return s.focused
}

func New(router Router) Component {
	ti := textinput.New()
	ti.Placeholder = "Service ID or address"
	ti.Prompt = "⌕ "
	ti.PromptStyle = styles.Title()
	return &searchCmp{
		router: router,
		input:  ti,
	}
}
