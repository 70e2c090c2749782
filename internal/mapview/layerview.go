package mapview

import (
	"slices"
	"sync"

	"github.com/covgis/meters/internal/feature"
)

// LayerView holds what one layer currently draws: its graphics, the set of
// highlighted features, and its labeling.
type LayerView struct {
	mu         sync.RWMutex
	id         string
	title      string
	graphics   []feature.Feature
	highlights map[int64]int
	labeling   Labeling
	symbol     rune
	minScale   float64
}

func newLayerView(id, title string) *LayerView {
	return &LayerView{
		id:         id,
		title:      title,
		highlights: make(map[int64]int),
		labeling:   Labeling{Field: feature.FieldServiceID},
		symbol:     '•',
	}
}

func (lv *LayerView) ID() string    { return lv.id }
func (lv *LayerView) Title() string { return lv.title }

// SetGraphics replaces the drawn features. Features are tagged with this
// layer's id.
func (lv *LayerView) SetGraphics(features []feature.Feature) {
	tagged := make([]feature.Feature, len(features))
	for i, f := range features {
		f.LayerID = lv.id
		tagged[i] = f
	}
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.graphics = tagged
}

func (lv *LayerView) Graphics() []feature.Feature {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return slices.Clone(lv.graphics)
}

// Highlight emphasises f until the returned handle is removed. Highlights are
// reference counted per feature.
func (lv *LayerView) Highlight(f feature.Feature) *Handle {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.highlights[f.ObjectID]++
	return &Handle{layer: lv, objectID: f.ObjectID}
}

func (lv *LayerView) IsHighlighted(objectID int64) bool {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.highlights[objectID] > 0
}

// HighlightCount is the number of live highlight handles on the layer.
func (lv *LayerView) HighlightCount() int {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	n := 0
	for _, c := range lv.highlights {
		n += c
	}
	return n
}

func (lv *LayerView) release(objectID int64) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.highlights[objectID] <= 1 {
		delete(lv.highlights, objectID)
		return
	}
	lv.highlights[objectID]--
}

func (lv *LayerView) Symbol() rune {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.symbol
}

func (lv *LayerView) SetSymbol(r rune) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.symbol = r
}

func (lv *LayerView) Labeling() Labeling {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.labeling
}

func (lv *LayerView) SetLabeling(l Labeling) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.labeling = l
}

// SetMinScale hides the layer when the view is zoomed out beyond scale.
// Zero means always visible.
func (lv *LayerView) SetMinScale(scale float64) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.minScale = scale
}

func (lv *LayerView) VisibleAt(scale float64) bool {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.minScale == 0 || scale <= lv.minScale
}

// Handle is a releasable highlight. Remove is idempotent.
type Handle struct {
	once     sync.Once
	layer    *LayerView
	objectID int64
}

func (h *Handle) Remove() {
	h.once.Do(func() {
		h.layer.release(h.objectID)
	})
}
