package suggest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/covgis/meters/internal/feature"
)

var ErrUnknownPayload = errors.New("suggestion payload does not name a loaded feature")

// LocalProvider answers suggestions from an in-memory copy of the layer,
// ranking labels by fuzzy match distance.
type LocalProvider struct {
	mu       sync.RWMutex
	template string
	max      int
	features []feature.Feature
	labels   []string
}

func NewLocalProvider(labelTemplate string, maxSuggestions int) *LocalProvider {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return &LocalProvider{template: labelTemplate, max: maxSuggestions}
}

// Load replaces the searchable features.
func (p *LocalProvider) Load(features []feature.Feature) {
	labels := make([]string, len(features))
	for i, f := range features {
		labels[i] = f.Attributes.Format(p.template)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.features = features
	p.labels = labels
}

func (p *LocalProvider) Suggest(ctx context.Context, query string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	ranks := fuzzy.RankFindFold(strings.TrimSpace(query), p.labels)
	sort.Stable(ranks)

	items := make([]Item, 0, min(len(ranks), p.max))
	for _, r := range ranks {
		if len(items) == p.max {
			break
		}
		items = append(items, Item{
			Label:   r.Target,
			Payload: p.features[r.OriginalIndex].ObjectID,
		})
	}
	return Response{ResultCount: len(ranks), Items: items}, nil
}

func (p *LocalProvider) Resolve(ctx context.Context, payload any) (feature.Feature, error) {
	if err := ctx.Err(); err != nil {
		return feature.Feature{}, err
	}
	oid, ok := payload.(int64)
	if !ok {
		return feature.Feature{}, fmt.Errorf("%w: %T", ErrUnknownPayload, payload)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, f := range p.features {
		if f.ObjectID == oid {
			return f, nil
		}
	}
	return feature.Feature{}, fmt.Errorf("%w: objectId %d", ErrUnknownPayload, oid)
}
