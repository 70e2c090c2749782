package search

import (
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/suggest"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type fakeRouter struct {
	queries  []string
	selected []int
}

func (r *fakeRouter) Query(text string) tea.Cmd {
	r.queries = append(r.queries, text)
	return nil
}

func (r *fakeRouter) SelectSuggestion(i int) tea.Cmd {
	r.selected = append(r.selected, i)
	return nil
}

func typeText(c Component, s string) {
	for _, r := range s {
		c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func stateEvent(items ...string) pubsub.Event[suggest.State] {
	st := suggest.State{Query: "w"}
	for i, label := range items {
		st.Items = append(st.Items, suggest.Item{Label: label, Payload: int64(i + 1)})
	}
	return pubsub.Event[suggest.State]{Type: pubsub.EventStateChanged, Payload: st}
}

func TestTypingQueriesEveryKeystroke(t *testing.T) {
	r := &fakeRouter{}
	c := New(r)
	c.SetSize(40, 10)

	typeText(c, "w1")
	assert.Empty(t, r.queries, "blurred input ignores keys")

	c.Focus()
	typeText(c, "w1")
	assert.Equal(t, []string{"w", "w1"}, r.queries)

	c.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, []string{"w", "w1", ""}, r.queries)
}

func TestEnterSelectsHighlightedSuggestion(t *testing.T) {
	r := &fakeRouter{}
	c := New(r)
	c.SetSize(40, 10)
	c.Focus()

	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, r.selected, "nothing to select")

	c.Update(stateEvent("W-1 - 1 Main St", "W-2 - 2 Main St", "W-3 - 3 Main St"))
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, r.selected, 1)
	assert.Equal(t, 2, r.selected[0], "cursor stops at the last item")

	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{2, 1}, r.selected)
}

func TestCursorClampsWhenListShrinks(t *testing.T) {
	r := &fakeRouter{}
	c := New(r)
	c.SetSize(40, 10)
	c.Focus()

	c.Update(stateEvent("a", "b", "c"))
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(stateEvent("a"))
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{0}, r.selected)
}

func TestViewListsSuggestions(t *testing.T) {
	c := New(&fakeRouter{})
	c.SetSize(40, 10)
	c.Update(stateEvent("W-1 - 1 Main St", "W-2 - 2 Main St"))

	view := ansi.Strip(c.View())
	assert.Contains(t, view, "› W-1 - 1 Main St")
	assert.Contains(t, view, "  W-2 - 2 Main St")
}

func TestViewShowsNoMatches(t *testing.T) {
	c := New(&fakeRouter{})
	c.SetSize(40, 10)
	c.Focus()
	typeText(c, "zz")
	c.Update(pubsub.Event[suggest.State]{Type: pubsub.EventStateChanged, Payload: suggest.State{Query: "zz"}})

	assert.Contains(t, ansi.Strip(c.View()), "no matches")
}
