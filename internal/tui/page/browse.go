package page

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/covgis/meters/internal/app"
	"github.com/covgis/meters/internal/tui/components/exports"
	"github.com/covgis/meters/internal/tui/components/info"
	"github.com/covgis/meters/internal/tui/components/labels"
	"github.com/covgis/meters/internal/tui/components/mapcanvas"
	"github.com/covgis/meters/internal/tui/components/search"
	"github.com/covgis/meters/internal/tui/layout"
	"github.com/covgis/meters/internal/tui/styles"
	"github.com/covgis/meters/internal/tui/util"
)

var BrowsePage PageID = "browse"

const sidebarMaxWidth = 44

// Tab is one of the sidebar panels. Only the active one is shown.
type Tab int

const (
	SearchTab Tab = iota
	LabelsTab
	ExportTab
	tabCount
)

var tabTitles = [tabCount]string{"Search", "Labels", "Export"}

func tabZone(t Tab) string { return "tab-" + tabTitles[t] }

type panel interface {
	tea.Model
	layout.Sizeable
	layout.Bindings
	layout.Focusable
}

type BrowseKeyMap struct {
	SwitchFocus key.Binding
	NextTab     key.Binding
	SearchTab   key.Binding
	LabelsTab   key.Binding
	ExportTab   key.Binding
	Print       key.Binding
	ToggleLabel key.Binding
	CycleLabel  key.Binding
	Close       key.Binding
}

var browseKeys = BrowseKeyMap{
	SwitchFocus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "sidebar/map"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "next tab"),
	),
	SearchTab: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("f2", "search"),
	),
	LabelsTab: key.NewBinding(
		key.WithKeys("f3"),
		key.WithHelp("f3", "labels"),
	),
	ExportTab: key.NewBinding(
		key.WithKeys("f4"),
		key.WithHelp("f4", "export"),
	),
	Print: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "print view"),
	),
	ToggleLabel: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "toggle labels"),
	),
	CycleLabel: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "next label field"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close meter info"),
	),
}

type browsePage struct {
	app        *app.App
	width      int
	height     int
	tab        Tab
	mapFocused bool

	panels [tabCount]panel
	canvas mapcanvas.Component
	info   info.Component
}

func (p *browsePage) Init() tea.Cmd {
	cmds := []tea.Cmd{p.canvas.Init(), p.info.Init()}
	for _, panel := range p.panels {
		cmds = append(cmds, panel.Init())
	}
	cmds = append(cmds, p.focus())
	return tea.Batch(cmds...)
}

func (p *browsePage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return p, p.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.SwitchFocus):
			p.mapFocused = !p.mapFocused
			return p, p.focus()
		case key.Matches(msg, browseKeys.NextTab):
			return p, p.SelectTab(Tab(util.Cycle(int(p.tab), int(tabCount))))
		case key.Matches(msg, browseKeys.SearchTab):
			return p, p.SelectTab(SearchTab)
		case key.Matches(msg, browseKeys.LabelsTab):
			return p, p.SelectTab(LabelsTab)
		case key.Matches(msg, browseKeys.ExportTab):
			return p, p.SelectTab(ExportTab)
		case key.Matches(msg, browseKeys.Print):
			return p, p.app.SubmitExport()
		case key.Matches(msg, browseKeys.ToggleLabel):
			l := p.app.LayerView.Labeling()
			l.Visible = !l.Visible
			p.app.SetLabeling(l)
			return p, nil
		case key.Matches(msg, browseKeys.CycleLabel):
			l := p.app.LayerView.Labeling()
			l.Field = l.NextField()
			l.Visible = true
			p.app.SetLabeling(l)
			return p, nil
		case key.Matches(msg, browseKeys.Close):
			p.app.ClearSelection()
			return p, nil
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			for t := range tabCount {
				if zone.Get(tabZone(t)).InBounds(msg) {
					return p, p.SelectTab(t)
				}
			}
		}
	}

	var cmds []tea.Cmd
	for i := range p.panels {
		// input only reaches the visible panel; snapshots reach all of them
		if _, input := msg.(tea.MouseMsg); input && Tab(i) != p.tab {
			continue
		}
		m, cmd := p.panels[i].Update(msg)
		p.panels[i] = m.(panel)
		cmds = append(cmds, cmd)
	}
	m, cmd := p.canvas.Update(msg)
	p.canvas = m.(mapcanvas.Component)
	cmds = append(cmds, cmd)
	m, cmd = p.info.Update(msg)
	p.info = m.(info.Component)
	cmds = append(cmds, cmd)
	return p, tea.Batch(cmds...)
}

// SelectTab shows tab t and gives it focus.
func (p *browsePage) SelectTab(t Tab) tea.Cmd {
	p.tab = t
	p.mapFocused = false
	return p.focus()
}

func (p *browsePage) focus() tea.Cmd {
	var cmds []tea.Cmd
	for i, panel := range p.panels {
		if !p.mapFocused && Tab(i) == p.tab {
			cmds = append(cmds, panel.Focus())
		} else {
			cmds = append(cmds, panel.Blur())
		}
	}
	if p.mapFocused {
		cmds = append(cmds, p.canvas.Focus())
	} else {
		cmds = append(cmds, p.canvas.Blur())
	}
	return tea.Batch(cmds...)
}

func (p *browsePage) tabBar() string {
	tabs := make([]string, 0, tabCount)
	for t := range tabCount {
		style := styles.Padded().Foreground(styles.TextMuted)
		if t == p.tab {
			style = styles.Padded().Foreground(styles.Primary).Bold(true).Underline(true)
		}
		tabs = append(tabs, zone.Mark(tabZone(t), style.Render(tabTitles[t])))
	}
	return strings.Join(tabs, "")
}

func (p *browsePage) View() string {
	sideWidth, panelHeight, infoHeight := p.layout()

	panelStyle := styles.FocusedBorder()
	mapStyle := styles.Border()
	if p.mapFocused {
		panelStyle, mapStyle = styles.Border(), styles.FocusedBorder()
	}

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(sideWidth-2).Height(panelHeight-2).
			Render(p.tabBar()+"\n"+p.panels[p.tab].View()),
		styles.Border().Width(sideWidth-2).Height(infoHeight-2).
			Render(p.info.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		sidebar,
		mapStyle.Render(p.canvas.View()),
	)
}

// layout returns the sidebar width and the heights of the tab panel and
// the info panel, borders included.
func (p *browsePage) layout() (sideWidth, panelHeight, infoHeight int) {
	sideWidth = min(sidebarMaxWidth, p.width/3)
	panelHeight = p.height / 2
	return sideWidth, panelHeight, p.height - panelHeight
}

func (p *browsePage) SetSize(width, height int) tea.Cmd {
	p.width = width
	p.height = height
	sideWidth, panelHeight, infoHeight := p.layout()

	// borders take two cells each way; the tab bar one row
	cmds := []tea.Cmd{
		p.info.SetSize(sideWidth-2, infoHeight-2),
		p.canvas.SetSize(width-sideWidth-2, height-2),
	}
	for _, panel := range p.panels {
		cmds = append(cmds, panel.SetSize(sideWidth-2, panelHeight-3))
	}
	return tea.Batch(cmds...)
}

func (p *browsePage) GetSize() (int, int) {
	return p.width, p.height
}

func (p *browsePage) BindingKeys() []key.Binding {
	bindings := layout.KeyMapToSlice(browseKeys)
	if p.mapFocused {
		return append(bindings, p.canvas.BindingKeys()...)
	}
	return append(bindings, p.panels[p.tab].BindingKeys()...)
}

func NewBrowsePage(app *app.App) tea.Model {
	return &browsePage{
		app: app,
		panels: [tabCount]panel{
			SearchTab: search.New(app),
			LabelsTab: labels.New(app, app.LayerView.Labeling),
			ExportTab: exports.New(app),
		},
		canvas: mapcanvas.New(app.View, app),
		info:   info.New(app),
	}
}
