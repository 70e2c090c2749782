package core

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/covgis/meters/internal/app"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/status"
	"github.com/covgis/meters/internal/tui/styles"
)

type StatusCmp interface {
	tea.Model
	SetHelpWidgetMsg(string)
}

type statusCmp struct {
	app            *app.App
	statusMessages []statusMessage
	width          int
	messageTTL     time.Duration
	helpWidget     string
}

type statusMessage struct {
	Level     status.Level
	Message   string
	Timestamp time.Time
	ExpiresAt time.Time
}

// clearMessageCmd is a command that clears status messages after a timeout
func (m *statusCmp) clearMessageCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusCleanupMsg{time: t}
	})
}

// statusCleanupMsg is a message that triggers cleanup of expired status messages
type statusCleanupMsg struct {
	time time.Time
}

func (m *statusCmp) Init() tea.Cmd {
	return m.clearMessageCmd()
}

func (m *statusCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case pubsub.Event[status.StatusMessage]:
		if msg.Type == status.EventStatusPublished {
			m.statusMessages = append(m.statusMessages, statusMessage{
				Level:     msg.Payload.Level,
				Message:   msg.Payload.Message,
				Timestamp: msg.Payload.Timestamp,
				ExpiresAt: msg.Payload.Timestamp.Add(m.messageTTL),
			})
		}
	case statusCleanupMsg:
		var active []statusMessage
		for _, sm := range m.statusMessages {
			if sm.ExpiresAt.After(msg.time) {
				active = append(active, sm)
			}
		}
		m.statusMessages = active
		return m, m.clearMessageCmd()
	}
	return m, nil
}

func getHelpWidget(helpText string) string {
	if helpText == "" {
		helpText = "ctrl+? help"
	}
	return styles.Padded().
		Background(styles.TextMuted).
		Foreground(styles.Background).
		Bold(true).
		Render(helpText)
}

func (m *statusCmp) View() string {
	bar := m.helpWidget
	right := m.viewInfo()

	statusWidth := max(0, m.width-lipgloss.Width(bar)-lipgloss.Width(right))

	if len(m.statusMessages) > 0 {
		sm := m.statusMessages[0]
		infoStyle := styles.Padded().
			Foreground(styles.Background).
			Width(statusWidth)

		switch sm.Level {
		case status.LevelInfo:
			infoStyle = infoStyle.Background(styles.Info)
		case status.LevelWarn:
			infoStyle = infoStyle.Background(styles.Warning)
		case status.LevelError:
			infoStyle = infoStyle.Background(styles.Error)
		case status.LevelDebug:
			infoStyle = infoStyle.Background(styles.TextMuted)
		}

		msg := sm.Message
		if availWidth := statusWidth - 4; availWidth > 0 {
			msg = truncate.StringWithTail(msg, uint(availWidth), "…")
		}
		bar += infoStyle.Render(msg)
	} else {
		bar += styles.Padded().
			Background(styles.Subtle).
			Width(statusWidth).
			Render("")
	}
	return bar + right
}

// viewInfo shows the map scale, the label field and outstanding exports.
func (m *statusCmp) viewInfo() string {
	if m.app == nil {
		return ""
	}
	info := styles.Padded().
		Background(styles.Subtle).
		Render(fmt.Sprintf("1:%.0f", m.app.View.Scale()))

	if l := m.app.LayerView.Labeling(); l.Visible {
		info += styles.Padded().
			Background(styles.Subtle).
			Foreground(styles.TextMuted).
			Render(styles.LabelIcon + " " + l.Field)
	}
	if n := m.app.Exports.PendingCount(); n > 0 {
		info += styles.Padded().
			Background(styles.Warning).
			Foreground(styles.Background).
			Render(fmt.Sprintf("%s %d printing", styles.PendingIcon, n))
	}
	return info + styles.Padded().
		Background(styles.Secondary).
		Foreground(styles.Background).
		Render(styles.MetersIcon+" meters")
}

func (m *statusCmp) SetHelpWidgetMsg(s string) {
	m.helpWidget = getHelpWidget(s)
}

func NewStatusCmp(app *app.App) StatusCmp {
	return &statusCmp{
		app:        app,
		messageTTL: 4 * time.Second,
		helpWidget: getHelpWidget(""),
	}
}
