package exports

import (
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/pubsub"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type fakeRouter struct{ submitted int }

func (r *fakeRouter) SubmitExport() tea.Cmd {
	r.submitted++
	return nil
}

func snapshot(jobs ...export.Job) pubsub.Event[export.Snapshot] {
	return pubsub.Event[export.Snapshot]{
		Type:    pubsub.EventStateChanged,
		Payload: export.Snapshot{Jobs: jobs},
	}
}

func TestPrintKeyNeedsFocus(t *testing.T) {
	r := &fakeRouter{}
	c := New(r)

	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Zero(t, r.submitted)

	c.Focus()
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, 1, r.submitted)
}

func TestRowsFollowSubmissionOrder(t *testing.T) {
	c := New(&fakeRouter{})
	c.SetSize(40, 12)

	c.Update(snapshot(
		export.Job{ID: 1, Title: "Water Meters 1", Status: export.Complete, URL: "https://example.com/1.pdf"},
		export.Job{ID: 2, Title: "Water Meters 2", Status: export.Pending},
		export.Job{ID: 3, Title: "Water Meters 3", Status: export.Failed},
	))

	rows := c.(*exportsCmp).table.Rows()
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, []string{"1", "2", "3"}[i], row[0])
	}
	assert.Contains(t, rows[0][2], "complete")
	assert.Contains(t, rows[1][2], "pending")
	assert.Contains(t, rows[2][2], "error")
}

func TestViewShowsSelectedLink(t *testing.T) {
	c := New(&fakeRouter{})
	c.SetSize(60, 12)
	c.Focus()

	assert.Contains(t, ansi.Strip(zone.Scan(c.View())), "No exports yet.")

	c.Update(snapshot(export.Job{ID: 1, Title: "Water Meters 1", Status: export.Complete, URL: "https://example.com/1.pdf"}))
	view := ansi.Strip(zone.Scan(c.View()))
	assert.Contains(t, view, "Print current view")
	assert.Contains(t, view, "https://example.com/1.pdf")
}

func TestLongTitlesAreTruncated(t *testing.T) {
	c := New(&fakeRouter{})
	c.SetSize(30, 10)

	c.Update(snapshot(export.Job{ID: 1, Title: "A very long export title that does not fit", Status: export.Pending}))
	title := c.(*exportsCmp).table.Rows()[0][1]
	assert.LessOrEqual(t, ansi.StringWidth(title), c.(*exportsCmp).table.Columns()[1].Width)
	assert.Contains(t, title, "…")
}
