package styles

import (
	"log/slog"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer returns a glamour renderer wrapping at width.
func MarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Error("Failed to create markdown renderer", "error", err)
		return nil
	}
	return r
}
