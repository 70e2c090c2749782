package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/covgis/meters/internal/app"
	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/status"
	"github.com/covgis/meters/internal/tui/components/core"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/page"
	"github.com/covgis/meters/internal/tui/styles"
)

type keyMap struct {
	Logs key.Binding
	Quit key.Binding
	Help key.Binding
}

var keys = keyMap{
	Logs: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "logs"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+_", "f1"),
		key.WithHelp("ctrl+?", "toggle help"),
	),
}

var returnKey = key.NewBinding(
	key.WithKeys("esc"),
	key.WithHelp("esc", "close"),
)

type appModel struct {
	width, height int
	currentPage   page.PageID
	pages         map[page.PageID]tea.Model
	loadedPages   map[page.PageID]bool
	status        core.StatusCmp
	app           *app.App

	showHelp bool
	help     help.Model
}

func (a appModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, a.pages[a.currentPage].Init())
	a.loadedPages[a.currentPage] = true
	cmds = append(cmds, a.status.Init())
	cmds = append(cmds, a.app.LoadLayer())
	a.app.Status.Info("Loading meters…")
	return tea.Batch(cmds...)
}

func (a appModel) updateAllPages(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for id := range a.pages {
		var cmd tea.Cmd
		a.pages[id], cmd = a.pages[id].Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a appModel) updateCurrentPage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.pages[a.currentPage], cmd = a.pages[a.currentPage].Update(msg)
	return a, cmd
}

func (a appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if appCmd, ok := a.app.Update(msg); ok {
		return a, appCmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		msg.Height -= 1 // status bar
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width

		s, _ := a.status.Update(msg)
		a.status = s.(core.StatusCmp)
		return a.updateAllPages(msg)

	case pubsub.Event[status.StatusMessage]:
		s, cmd := a.status.Update(msg)
		a.status = s.(core.StatusCmp)
		return a, cmd

	case pubsub.Event[logging.Log]:
		return a.updateAllPages(msg)

	case page.PageChangeMsg:
		return a, a.moveToPage(msg.ID)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			return a, nil
		case key.Matches(msg, returnKey) && a.showHelp:
			a.showHelp = false
			return a, nil
		case key.Matches(msg, keys.Logs):
			return a, a.moveToPage(page.LogsPage)
		}
	}

	s, cmd := a.status.Update(msg)
	a.status = s.(core.StatusCmp)
	cmds = append(cmds, cmd)

	// Snapshots from the app components go to every page so hidden pages
	// stay current; input only reaches the visible one.
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		_, cmd = a.updateCurrentPage(msg)
	default:
		_, cmd = a.updateAllPages(msg)
	}
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *appModel) moveToPage(pageID page.PageID) tea.Cmd {
	if pageID == "" || pageID == a.currentPage {
		return nil
	}
	var cmds []tea.Cmd
	if _, ok := a.loadedPages[pageID]; !ok {
		cmds = append(cmds, a.pages[pageID].Init())
		a.loadedPages[pageID] = true
	}
	a.currentPage = pageID
	if sizable, ok := a.pages[a.currentPage].(layout.Sizeable); ok {
		cmds = append(cmds, sizable.SetSize(a.width, a.height))
	}
	return tea.Batch(cmds...)
}

func (a appModel) bindings() []key.Binding {
	bindings := layout.KeyMapToSlice(keys)
	if p, ok := a.pages[a.currentPage].(layout.Bindings); ok {
		bindings = append(bindings, p.BindingKeys()...)
	}
	return bindings
}

func (a appModel) View() string {
	appView := a.pages[a.currentPage].View()

	if a.showHelp {
		a.help.ShowAll = true
		overlay := styles.FocusedBorder().
			Padding(0, 1).
			Render(styles.Title().Render("Keys") + "\n\n" + a.help.FullHelpView(columns(a.bindings(), 8)))
		appView = layout.PlaceCentered(overlay, appView)
	}

	appView = lipgloss.JoinVertical(lipgloss.Top, appView, a.status.View())
	return zone.Scan(appView)
}

// columns splits bindings into help columns of at most n rows.
func columns(bindings []key.Binding, n int) [][]key.Binding {
	var cols [][]key.Binding
	for len(bindings) > n {
		cols = append(cols, bindings[:n])
		bindings = bindings[n:]
	}
	if len(bindings) > 0 {
		cols = append(cols, bindings)
	}
	return cols
}

func New(app *app.App) tea.Model {
	startPage := page.BrowsePage
	statusCmp := core.NewStatusCmp(app)
	statusCmp.SetHelpWidgetMsg("ctrl+? help")
	return &appModel{
		currentPage: startPage,
		loadedPages: make(map[page.PageID]bool),
		status:      statusCmp,
		app:         app,
		help:        help.New(),
		pages: map[page.PageID]tea.Model{
			page.BrowsePage: page.NewBrowsePage(app),
			page.LogsPage:   page.NewLogsPage(app.Logs),
		},
	}
}
