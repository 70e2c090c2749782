// Package selection turns map taps into at most one selected feature of a
// tracked layer and owns the highlight shown for it.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/mapview"
	"github.com/covgis/meters/internal/pubsub"
)

// HitTester answers which features are drawn at a point of the canvas, in
// collaborator order.
type HitTester interface {
	HitTest(ctx context.Context, pt mapview.ScreenPoint) ([]mapview.Hit, error)
}

// Releaser is a highlight that must be removed exactly once.
type Releaser interface {
	Remove()
}

// Layer is the tracked layer: hits from other layers are ignored.
type Layer interface {
	ID() string
	Highlight(f feature.Feature) Releaser
}

type layerView struct{ *mapview.LayerView }

func (l layerView) Highlight(f feature.Feature) Releaser { return l.LayerView.Highlight(f) }

// TrackLayer adapts a map layer view for use by a Controller.
func TrackLayer(lv *mapview.LayerView) Layer { return layerView{lv} }

type Mode int

const (
	Idle Mode = iota
	Selected
)

func (m Mode) String() string {
	if m == Selected {
		return "selected"
	}
	return "idle"
}

// State is the renderable snapshot of the controller.
type State struct {
	Mode    Mode
	Feature feature.Feature
	Info    InfoPanel
}

// HitMsg carries a finished hit-test back to the UI loop.
type HitMsg struct {
	seq   uint64
	Point mapview.ScreenPoint
	Hits  []mapview.Hit
	Err   error
}

// Controller holds at most one selected feature. All methods must be called
// from the UI loop.
type Controller struct {
	hits   HitTester
	layer  Layer
	base   context.Context
	domain *feature.CodedValueDomain

	seq      uint64
	selected *feature.Feature
	handle   Releaser
	info     InfoPanel

	broker *pubsub.Broker[State]
}

func NewController(ctx context.Context, hits HitTester, layer Layer) *Controller {
	return &Controller{
		hits:   hits,
		layer:  layer,
		base:   ctx,
		broker: pubsub.NewBroker[State](),
	}
}

// SetDomain installs the coded-value domain used for the account type row.
// It is resolved once, after the layer loads.
func (c *Controller) SetDomain(d *feature.CodedValueDomain) {
	c.domain = d
}

// HandleTap starts a hit-test at pt. A later tap supersedes an earlier one
// whose result has not yet been applied.
func (c *Controller) HandleTap(pt mapview.ScreenPoint) tea.Cmd {
	c.seq++
	seq, hits, ctx := c.seq, c.hits, c.base
	return func() tea.Msg {
		res, err := hits.HitTest(ctx, pt)
		return HitMsg{seq: seq, Point: pt, Hits: res, Err: err}
	}
}

// Apply folds a hit-test result into the selection. The first hit owned by
// the tracked layer becomes the selection; no such hit clears it. A failed
// hit-test leaves the selection untouched and returns the error.
func (c *Controller) Apply(msg HitMsg) error {
	if msg.seq != c.seq {
		slog.Debug("discarding stale hit-test", "x", msg.Point.X, "y", msg.Point.Y)
		return nil
	}
	if msg.Err != nil {
		return fmt.Errorf("hit-test at %d,%d: %w", msg.Point.X, msg.Point.Y, msg.Err)
	}
	for _, h := range msg.Hits {
		if h.LayerID == c.layer.ID() {
			return c.Open(h.Feature)
		}
	}
	c.Clear()
	return nil
}

// Open makes f the selection and supersedes any tap still being hit-tested.
// The previous highlight is released before the new one is acquired. A
// coded-value miss is returned after the selection is applied.
func (c *Controller) Open(f feature.Feature) error {
	c.seq++
	c.release()

	sel := f
	c.selected = &sel
	c.handle = c.layer.Highlight(f)
	info, err := BuildInfo(f, c.domain)
	c.info = info

	c.publish()
	if errors.Is(err, feature.ErrCodedValueNotFound) {
		slog.Warn("data integrity", "feature", f.Key(), "error", err)
	}
	return err
}

// Clear drops the selection. Clearing while idle is a no-op.
func (c *Controller) Clear() {
	if c.selected == nil {
		return
	}
	c.release()
	c.publish()
}

func (c *Controller) release() {
	if c.handle != nil {
		c.handle.Remove()
		c.handle = nil
	}
	c.selected = nil
	c.info = InfoPanel{}
}

func (c *Controller) State() State {
	if c.selected == nil {
		return State{Mode: Idle}
	}
	return State{Mode: Selected, Feature: *c.selected, Info: c.info}
}

func (c *Controller) Subscribe(ctx context.Context) <-chan pubsub.Event[State] {
	return c.broker.Subscribe(ctx)
}

// Close releases the highlight and ends all subscriptions.
func (c *Controller) Close() {
	c.seq++
	c.release()
	c.broker.Shutdown()
}

func (c *Controller) publish() {
	c.broker.Publish(pubsub.EventStateChanged, c.State())
}
