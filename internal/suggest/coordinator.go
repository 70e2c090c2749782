package suggest

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covgis/meters/internal/pubsub"
)

// Coordinator owns the suggestion list. All methods must be called from the
// UI loop; provider calls run inside the returned commands.
type Coordinator struct {
	provider Provider
	base     context.Context
	debounce time.Duration
	max      int

	current   *Token
	resolving *Token
	query     string
	items     []Item

	broker *pubsub.Broker[State]
}

type Option func(*Coordinator)

// WithDebounce delays each provider call by d; a request superseded during
// the delay never reaches the provider.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

func WithMaxSuggestions(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.max = n
		}
	}
}

func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) { c.base = ctx }
}

func NewCoordinator(provider Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider: provider,
		base:     context.Background(),
		max:      DefaultMaxSuggestions,
		broker:   pubsub.NewBroker[State](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggest starts a request for query, superseding any outstanding one. An
// empty query clears the list synchronously and returns a nil command.
func (c *Coordinator) Suggest(query string) tea.Cmd {
	c.cancelCurrent()
	c.query = query

	if strings.TrimSpace(query) == "" {
		c.items = nil
		c.publish()
		return nil
	}

	token := newToken(c.base, query)
	c.current = token
	c.publish()

	provider, debounce := c.provider, c.debounce
	return func() tea.Msg {
		if debounce > 0 {
			select {
			case <-token.ctx.Done():
				return ResultMsg{token: token, Err: token.ctx.Err()}
			case <-time.After(debounce):
			}
		}
		resp, err := provider.Suggest(token.ctx, query)
		return ResultMsg{token: token, Response: resp, Err: err}
	}
}

// Apply folds a provider result into the list. It reports whether the
// result was current; stale results change nothing.
func (c *Coordinator) Apply(msg ResultMsg) bool {
	if msg.token == nil {
		return false
	}
	if msg.token != c.current {
		slog.Debug("discarding stale suggestions", "query", msg.token.Query())
		return false
	}
	c.current = nil
	msg.token.cancel()

	if msg.Err != nil {
		slog.Debug("suggest failed", "query", msg.token.Query(), "error", msg.Err)
		c.items = nil
	} else {
		items := msg.Response.Items
		if len(items) > c.max {
			items = items[:c.max]
		}
		c.items = slices.Clone(items)
	}
	c.publish()
	return true
}

// Select resolves the i-th suggestion to its full feature. Selecting again
// before the resolve finishes supersedes the earlier selection.
func (c *Coordinator) Select(i int) tea.Cmd {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	if c.resolving != nil {
		c.resolving.Cancel()
	}
	item := c.items[i]
	token := newToken(c.base, item.Label)
	c.resolving = token

	provider := c.provider
	return func() tea.Msg {
		f, err := provider.Resolve(token.ctx, item.Payload)
		return ResolvedMsg{token: token, Item: item, Feature: f, Err: err}
	}
}

// ApplyResolved reports whether msg belongs to the latest selection.
func (c *Coordinator) ApplyResolved(msg ResolvedMsg) bool {
	if msg.token == nil || msg.token != c.resolving {
		return false
	}
	c.resolving = nil
	msg.token.cancel()
	return true
}

func (c *Coordinator) State() State {
	return State{
		Query:   c.query,
		Items:   slices.Clone(c.items),
		Pending: c.current != nil,
	}
}

func (c *Coordinator) Subscribe(ctx context.Context) <-chan pubsub.Event[State] {
	return c.broker.Subscribe(ctx)
}

// Close cancels outstanding work and ends all subscriptions.
func (c *Coordinator) Close() {
	c.cancelCurrent()
	if c.resolving != nil {
		c.resolving.Cancel()
		c.resolving = nil
	}
	c.broker.Shutdown()
}

func (c *Coordinator) cancelCurrent() {
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
}

func (c *Coordinator) publish() {
	c.broker.Publish(pubsub.EventStateChanged, c.State())
}
