// Package exports lists print jobs in submission order.
package exports

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/truncate"

	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
)

const zonePrint = "export-print"

// Router is the slice of the app the export panel drives.
type Router interface {
	SubmitExport() tea.Cmd
}

type Component interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
	layout.Focusable
}

var printKey = key.NewBinding(
	key.WithKeys("n"),
	key.WithHelp("n", "new export"),
)

type exportsCmp struct {
	router  Router
	table   table.Model
	spinner spinner.Model
	jobs    []export.Job
	width   int
	focused bool
}

func (e *exportsCmp) Init() tea.Cmd {
	return e.spinner.Tick
}

func (e *exportsCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[export.Snapshot]:
		e.jobs = msg.Payload.Jobs
		e.updateRows()
		e.table.GotoBottom()
		return e, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		e.spinner, cmd = e.spinner.Update(msg)
		e.updateRows()
		return e, cmd

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft &&
			zone.Get(zonePrint).InBounds(msg) {
			return e, e.router.SubmitExport()
		}
		return e, nil

	case tea.KeyMsg:
		if !e.focused {
			return e, nil
		}
		if key.Matches(msg, printKey) {
			return e, e.router.SubmitExport()
		}
	}

	var cmd tea.Cmd
	e.table, cmd = e.table.Update(msg)
	return e, cmd
}

func (e *exportsCmp) updateRows() {
	titleWidth := uint(max(1, e.table.Columns()[1].Width))
	rows := make([]table.Row, 0, len(e.jobs))
	for _, job := range e.jobs {
		rows = append(rows, table.Row{
			strconv.Itoa(job.ID),
			truncate.StringWithTail(job.Title, titleWidth, "…"),
			e.statusCell(job.Status),
		})
	}
	e.table.SetRows(rows)
}

func (e *exportsCmp) statusCell(s export.Status) string {
	switch s {
	case export.Pending:
		return e.spinner.View() + " " + s.String()
	case export.Complete:
		return styles.CheckIcon + " " + s.String()
	default:
		return styles.ErrorIcon + " " + s.String()
	}
}

// selectedURL is the result link of the highlighted row, if it has one.
func (e *exportsCmp) selectedURL() string {
	i := e.table.Cursor()
	if i < 0 || i >= len(e.jobs) {
		return ""
	}
	return e.jobs[i].URL
}

func (e *exportsCmp) View() string {
	button := zone.Mark(zonePrint, styles.Padded().
		Background(styles.Primary).
		Foreground(styles.Background).
		Render("Print current view"))

	if len(e.jobs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			button,
			"",
			styles.Muted().Render("No exports yet."),
		)
	}

	s := table.DefaultStyles()
	s.Selected = s.Selected.Foreground(styles.Primary)
	if !e.focused {
		s.Selected = lipgloss.NewStyle()
	}
	e.table.SetStyles(s)

	link := styles.Muted().Render("select a finished job to see its link")
	if url := e.selectedURL(); url != "" {
		link = lipgloss.NewStyle().Foreground(styles.Info).Underline(true).
			Render(truncate.StringWithTail(url, uint(max(1, e.width)), "…"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, button, "", e.table.View(), link)
}

func (e *exportsCmp) SetSize(width, height int) tea.Cmd {
	e.width = width
	e.table.SetWidth(width)
	// button, gap and link rows
	e.table.SetHeight(max(2, height-3))
	columns := e.table.Columns()
	idWidth := 3
	statusWidth := 11
	columns[0].Width = idWidth
	columns[1].Width = max(8, width-idWidth-statusWidth-6)
	columns[2].Width = statusWidth
	e.table.SetColumns(columns)
	e.updateRows()
	return nil
}

func (e *exportsCmp) GetSize() (int, int) {
	return e.width, e.table.Height()
}

func (e *exportsCmp) BindingKeys() []key.Binding {
	return append([]key.Binding{printKey}, layout.KeyMapToSlice(e.table.KeyMap)...)
}

func (e *exportsCmp) Focus() tea.Cmd {
	e.focused = true
	e.table.Focus()
	return nil
}

func (e *exportsCmp) Blur() tea.Cmd {
	e.focused = false
	e.table.Blur()
	return nil
}

func (e *exportsCmp) IsFocused() bool {
	return e.focused
}

func New(router Router) Component {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Title", Width: 24},
		{Title: "Status", Width: 11},
	}
	// table cells are measured in runes, so the spinner stays unstyled
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle()
	return &exportsCmp{
		router:  router,
		table:   table.New(table.WithColumns(columns)),
		spinner: sp,
	}
}
