package util

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CmdHandler wraps msg in a command so it comes back through Update.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

func Clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}

// Cycle returns the index after i in a ring of n entries.
func Cycle(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i + 1) % n
}
