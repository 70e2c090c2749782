package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
)

type DetailComponent interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
}

type detailCmp struct {
	width, height int
	currentLog    logging.Log
	viewport      viewport.Model
	focused       bool
}

func (i *detailCmp) Init() tea.Cmd {
	return nil
}

func (i *detailCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case selectedLogMsg:
		if msg.ID != i.currentLog.ID {
			i.currentLog = logging.Log(msg)
			i.updateContent()
		}
	case tea.KeyMsg:
		if !i.focused {
			return i, nil
		}
		i.viewport, cmd = i.viewport.Update(msg)
	}
	return i, cmd
}

func (i *detailCmp) updateContent() {
	var content strings.Builder

	header := lipgloss.JoinHorizontal(
		lipgloss.Center,
		styles.Muted().Render(i.currentLog.Timestamp.Format(time.RFC3339)),
		"  ",
		styles.LevelStyle(strings.ToLower(i.currentLog.Level)).Render(i.currentLog.Level),
	)
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	content.WriteString("\n\n")

	content.WriteString(styles.Bold().Render("Message:"))
	content.WriteString("\n")
	content.WriteString(lipgloss.NewStyle().Padding(0, 2).Width(i.width).Render(i.currentLog.Message))
	content.WriteString("\n\n")

	if len(i.currentLog.Attributes) > 0 {
		content.WriteString(styles.Bold().Render("Attributes:"))
		content.WriteString("\n")

		keyStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		for _, k := range slices.Sorted(maps.Keys(i.currentLog.Attributes)) {
			value := i.currentLog.Attributes[k]
			if strings.HasPrefix(value, "{") {
				var indented bytes.Buffer
				if err := json.Indent(&indented, []byte(value), "", "  "); err == nil {
					value = indented.String()
				}
			}
			line := fmt.Sprintf("%s: %s", keyStyle.Render(k), styles.BaseStyle().Render(value))
			content.WriteString(lipgloss.NewStyle().Padding(0, 2).Width(i.width).Render(line))
			content.WriteString("\n")
		}
	}

	i.viewport.SetContent(content.String())
}

func (i *detailCmp) View() string {
	return i.viewport.View()
}

func (i *detailCmp) GetSize() (int, int) {
	return i.width, i.height
}

func (i *detailCmp) SetSize(width int, height int) tea.Cmd {
	i.width = width
	i.height = height
	i.viewport.Width = width
	i.viewport.Height = height
	i.updateContent()
	return nil
}

func (i *detailCmp) BindingKeys() []key.Binding {
	return layout.KeyMapToSlice(i.viewport.KeyMap)
}

func NewLogsDetails() DetailComponent {
	return &detailCmp{
		viewport: viewport.New(0, 0),
	}
}
