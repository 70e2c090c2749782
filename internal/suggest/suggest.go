// Package suggest runs typeahead search against a Provider. Each keystroke
// supersedes the previous request; a response is applied only while its
// token is still the current one, so the last request issued always wins
// regardless of the order responses arrive in.
package suggest

import (
	"context"

	"github.com/covgis/meters/internal/feature"
)

const DefaultMaxSuggestions = 6

// Item is one suggestion: what to show, and what to hand back to the
// provider to resolve the full feature.
type Item struct {
	Label   string
	Payload any
}

type Response struct {
	ResultCount int
	Items       []Item
}

// Provider is the search collaborator. Suggest must honour ctx
// cancellation where it can, but correctness does not depend on it.
type Provider interface {
	Suggest(ctx context.Context, query string) (Response, error)
	Resolve(ctx context.Context, payload any) (feature.Feature, error)
}

// Token identifies one suggestion request. Tokens are compared by pointer.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
	query  string
}

func newToken(parent context.Context, query string) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel, query: query}
}

func (t *Token) Context() context.Context { return t.ctx }
func (t *Token) Query() string            { return t.query }

// Cancel asks the in-flight provider call to abort.
func (t *Token) Cancel() { t.cancel() }

// State is the renderable snapshot of the coordinator.
type State struct {
	Query   string
	Items   []Item
	Pending bool
}

// ResultMsg carries a provider response back to the UI loop.
type ResultMsg struct {
	token    *Token
	Response Response
	Err      error
}

// ResolvedMsg carries a resolved suggestion back to the UI loop.
type ResolvedMsg struct {
	token   *Token
	Item    Item
	Feature feature.Feature
	Err     error
}
