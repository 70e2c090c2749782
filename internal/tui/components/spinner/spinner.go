// Package spinner shows a one-line progress spinner on stderr while a
// headless command waits on the network.
package spinner

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covgis/meters/internal/tui/styles"
)

type Spinner struct {
	prog *tea.Program
	done chan struct{}
	once sync.Once
}

type model struct {
	spinner  spinner.Model
	message  string
	quitting bool
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case quitMsg:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}

type quitMsg struct{}

// NewSpinner creates a spinner with the default style.
func NewSpinner(message string) *Spinner {
	return NewThemedSpinner(message, styles.Primary)
}

// NewThemedSpinner creates a spinner drawn in color.
func NewThemedSpinner(message string, color lipgloss.TerminalColor) *Spinner {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(color)
	prog := tea.NewProgram(
		model{spinner: s, message: message},
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutCatchPanics(),
	)
	return &Spinner{prog: prog, done: make(chan struct{})}
}

// Start runs the spinner until Stop is called.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		if _, err := s.prog.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "spinner: %v\n", err)
		}
	}()
}

// Stop halts the spinner and waits for it to clear its line. It is safe to
// call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.prog.Send(quitMsg{})
		<-s.done
	})
}
