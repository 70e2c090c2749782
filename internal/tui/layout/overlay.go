package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/covgis/meters/internal/tui/util"
)

// Split a string into lines, additionally returning the size of the widest line.
func getLines(s string) (lines []string, widest int) {
	lines = strings.Split(s, "\n")
	for _, l := range lines {
		widest = max(widest, ansi.StringWidth(l))
	}
	return lines, widest
}

// PlaceOverlay places fg on top of bg with its top-left corner at x, y.
// The overlay is clamped so it stays inside the background box.
func PlaceOverlay(x, y int, fg, bg string) string {
	fgLines, fgWidth := getLines(fg)
	bgLines, bgWidth := getLines(bg)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return fg
	}
	x = util.Clamp(x, 0, max(0, bgWidth-fgWidth))
	y = util.Clamp(y, 0, max(0, bgHeight-fgHeight))

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		lineWidth := ansi.StringWidth(bgLine)
		if pos < lineWidth {
			b.WriteString(ansi.Cut(bgLine, pos, lineWidth))
		}
	}
	return b.String()
}

// PlaceCentered overlays fg in the middle of bg.
func PlaceCentered(fg, bg string) string {
	_, fgWidth := getLines(fg)
	bgLines, bgWidth := getLines(bg)
	fgHeight := strings.Count(fg, "\n") + 1
	return PlaceOverlay((bgWidth-fgWidth)/2, (len(bgLines)-fgHeight)/2, fg, bg)
}
