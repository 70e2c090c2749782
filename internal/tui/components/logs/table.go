package logs

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
)

const logLimit = 100

type TableComponent interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
}

type tableCmp struct {
	table         table.Model
	focused       bool
	logs          []logging.Log
	selectedLogID string
	list          func(ctx context.Context, limit int) ([]logging.Log, error)
}

type selectedLogMsg logging.Log

type logsLoadedMsg struct {
	logs []logging.Log
}

func (i *tableCmp) Init() tea.Cmd {
	return i.fetchLogs()
}

func (i *tableCmp) fetchLogs() tea.Cmd {
	list := i.list
	return func() tea.Msg {
		logs, err := list(context.Background(), logLimit)
		if err != nil {
			slog.Error("Failed to load logs", "error", err)
			return nil
		}
		return logsLoadedMsg{logs: logs}
	}
}

func (i *tableCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case logsLoadedMsg:
		i.logs = msg.logs
		i.updateRows()
		return i, nil

	case pubsub.Event[logging.Log]:
		if msg.Type == logging.EventLogCreated {
			i.logs = append([]logging.Log{msg.Payload}, i.logs...)
			if len(i.logs) > logLimit {
				i.logs = i.logs[:logLimit]
			}
			i.updateRows()
		}
		return i, nil
	}

	if _, ok := msg.(tea.KeyMsg); ok && !i.focused {
		return i, nil
	}

	t, cmd := i.table.Update(msg)
	cmds = append(cmds, cmd)
	i.table = t

	selectedRow := i.table.SelectedRow()
	if selectedRow == nil {
		return i, tea.Batch(cmds...)
	}
	if i.selectedLogID != selectedRow[0] {
		id := selectedRow[0]
		for _, log := range i.logs {
			if log.ID == id {
				cmds = append(cmds, func() tea.Msg { return selectedLogMsg(log) })
				break
			}
		}
	}
	i.selectedLogID = selectedRow[0]
	return i, tea.Batch(cmds...)
}

func (i *tableCmp) View() string {
	defaultStyles := table.DefaultStyles()
	defaultStyles.Selected = defaultStyles.Selected.Foreground(styles.Primary)
	i.table.SetStyles(defaultStyles)
	return i.table.View()
}

func (i *tableCmp) GetSize() (int, int) {
	return i.table.Width(), i.table.Height()
}

func (i *tableCmp) SetSize(width int, height int) tea.Cmd {
	i.table.SetWidth(width)
	i.table.SetHeight(height)
	columns := i.table.Columns()

	timeWidth := 8
	levelWidth := 7
	messageWidth := max(10, width-timeWidth-levelWidth-5)

	columns[0].Width = 0 // ID, hidden
	columns[1].Width = timeWidth
	columns[2].Width = levelWidth
	columns[3].Width = messageWidth

	i.table.SetColumns(columns)
	return nil
}

func (i *tableCmp) BindingKeys() []key.Binding {
	return layout.KeyMapToSlice(i.table.KeyMap)
}

func (i *tableCmp) updateRows() {
	rows := make([]table.Row, 0, len(i.logs))
	for _, log := range i.logs {
		rows = append(rows, table.Row{
			log.ID,
			log.Timestamp.Local().Format("15:04:05"),
			log.Level,
			log.Message,
		})
	}
	i.table.SetRows(rows)
}

// NewLogsTable lists the most recent persisted logs, newest first.
func NewLogsTable(list func(ctx context.Context, limit int) ([]logging.Log, error)) TableComponent {
	columns := []table.Column{
		{Title: "ID", Width: 0},
		{Title: "Time", Width: 8},
		{Title: "Level", Width: 7},
		{Title: "Message", Width: 30},
	}

	tableModel := table.New(table.WithColumns(columns))
	tableModel.Focus()
	return &tableCmp{
		table:   tableModel,
		focused: true,
		list:    list,
	}
}

func (i *tableCmp) Focus() {
	i.focused = true
	i.table.Focus()
}

func (i *tableCmp) Blur() {
	i.focused = false
	i.table.Blur()
}
