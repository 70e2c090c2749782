package page

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/tui/components/logs"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
	"github.com/covgis/meters/internal/tui/util"
)

var LogsPage PageID = "logs"

var logsReturnKey = key.NewBinding(
	key.WithKeys("esc", "backspace", "q"),
	key.WithHelp("esc/q", "go back"),
)

type LogPage interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
}

type logsPage struct {
	width, height int
	table         logs.TableComponent
	details       logs.DetailComponent
}

func (p *logsPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		return p, p.SetSize(msg.Width, msg.Height)
	}
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, logsReturnKey) {
		return p, util.CmdHandler(PageChangeMsg{ID: BrowsePage})
	}

	table, cmd := p.table.Update(msg)
	cmds = append(cmds, cmd)
	p.table = table.(logs.TableComponent)
	details, cmd := p.details.Update(msg)
	cmds = append(cmds, cmd)
	p.details = details.(logs.DetailComponent)

	return p, tea.Batch(cmds...)
}

func (p *logsPage) View() string {
	tableView := lipgloss.NewStyle().PaddingRight(3).Render(p.table.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.Bold().Render(" esc")+styles.Muted().Render(" to go back"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			tableView,
			p.details.View(),
		),
		"",
	)
}

func (p *logsPage) BindingKeys() []key.Binding {
	return append(p.table.BindingKeys(), logsReturnKey)
}

func (p *logsPage) GetSize() (int, int) {
	return p.width, p.height
}

func (p *logsPage) SetSize(width int, height int) tea.Cmd {
	p.width = width
	p.height = height
	return tea.Batch(
		p.table.SetSize(width/2, height-3),
		p.details.SetSize(width/2-3, height-3),
	)
}

func (p *logsPage) Init() tea.Cmd {
	return tea.Batch(
		p.table.Init(),
		p.details.Init(),
	)
}

func NewLogsPage(logService logging.Service) LogPage {
	return &logsPage{
		table:   logs.NewLogsTable(logService.ListAll),
		details: logs.NewLogsDetails(),
	}
}
