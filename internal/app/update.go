package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covgis/meters/internal/arcgis"
	"github.com/covgis/meters/internal/config"
	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/history"
	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/mapview"
	"github.com/covgis/meters/internal/selection"
	"github.com/covgis/meters/internal/suggest"
)

// LayerLoadedMsg carries the layer metadata, its initial extent and its
// features back to the UI loop.
type LayerLoadedMsg struct {
	Info     arcgis.LayerInfo
	Domain   *feature.CodedValueDomain
	Extent   feature.Extent
	Features []feature.Feature
	Err      error
}

// ExportRecordedMsg reports that a finished job reached the history.
type ExportRecordedMsg struct {
	Record history.Record
	Err    error
}

// LoadLayer fetches everything the view needs from the layer.
func (app *App) LoadLayer() tea.Cmd {
	ctx, layer, cfg := app.ctx, app.layer, app.Config
	return func() tea.Msg {
		defer logging.RecoverPanic("app.LoadLayer", nil)
		msg := LayerLoadedMsg{}
		msg.Info, msg.Err = layer.Load(ctx)
		if msg.Err != nil {
			return msg
		}
		if cfg.Layer.DomainField != "" {
			if msg.Domain, msg.Err = layer.Domain(ctx, cfg.Layer.DomainField); msg.Err != nil {
				return msg
			}
		}
		if msg.Extent, msg.Err = layer.QueryExtent(ctx, "1 = 1", cfg.View.OutWkid); msg.Err != nil {
			return msg
		}
		msg.Features, msg.Err = layer.QueryAll(ctx, arcgis.Query{
			ReturnGeometry: true,
			OutWKID:        cfg.View.OutWkid,
		})
		return msg
	}
}

// ApplyLayerLoaded installs the layer: the coded-value domain is resolved
// once here, the view goes to the layer extent and the scale is clamped.
func (app *App) ApplyLayerLoaded(msg LayerLoadedMsg) error {
	if msg.Err != nil {
		return fmt.Errorf("load layer: %w", msg.Err)
	}
	app.Selection.SetDomain(msg.Domain)
	app.LayerView.SetGraphics(msg.Features)
	if app.local != nil {
		app.local.Load(msg.Features)
	}

	app.View.GoTo(msg.Extent)
	if maxScale := app.Config.View.MaxInitialScale; maxScale > 0 && app.View.Scale() > maxScale {
		app.View.SetScale(maxScale)
	}
	slog.Info("Layer loaded", "name", msg.Info.Name, "features", len(msg.Features), "scale", app.View.Scale())
	return nil
}

// Query routes query text to the suggestion coordinator.
func (app *App) Query(text string) tea.Cmd {
	return app.Search.Suggest(text)
}

// SelectSuggestion resolves the i-th suggestion.
func (app *App) SelectSuggestion(i int) tea.Cmd {
	return app.Search.Select(i)
}

// ApplyResolved opens a resolved suggestion and zooms to it.
func (app *App) ApplyResolved(msg suggest.ResolvedMsg) error {
	if !app.Search.ApplyResolved(msg) {
		return nil
	}
	if msg.Err != nil {
		return fmt.Errorf("resolve %q: %w", msg.Item.Label, msg.Err)
	}
	err := app.Selection.Open(msg.Feature)
	app.View.Center(msg.Feature.Geometry)
	app.View.SetScale(app.Config.View.CloseupScale)
	return err
}

// Tap routes a map tap to the selection controller.
func (app *App) Tap(pt mapview.ScreenPoint) tea.Cmd {
	return app.Selection.HandleTap(pt)
}

// ClearSelection closes the info panel and drops the meter highlight.
func (app *App) ClearSelection() {
	app.Selection.Clear()
}

// SetLabeling relabels the meter layer and persists the choice.
func (app *App) SetLabeling(l mapview.Labeling) {
	app.LayerView.SetLabeling(l)
	if err := config.UpdateLabeling(l.Field, l.Visible); err != nil {
		slog.Warn("Failed to persist labeling", "error", err)
	}
}

// SubmitExport queues a print of the current view.
func (app *App) SubmitExport() tea.Cmd {
	id, cmd := app.Exports.Submit(app.Config.Print.TitleTemplate)
	slog.Debug("Export submitted", "job", id)
	return cmd
}

// ApplyExport resolves a job and records it.
func (app *App) ApplyExport(msg export.ResultMsg) tea.Cmd {
	job, ok := app.Exports.Apply(msg)
	if !ok {
		return nil
	}
	if job.Status == export.Failed {
		app.Status.Error(fmt.Sprintf("Export %q failed", job.Title))
	} else {
		app.Status.Info(fmt.Sprintf("Export %q is ready", job.Title))
	}
	if app.History == nil {
		return nil
	}
	ctx, hist := app.ctx, app.History
	return func() tea.Msg {
		rec, err := hist.Record(ctx, job)
		return ExportRecordedMsg{Record: rec, Err: err}
	}
}

// Update applies any app message and returns the follow-up command. It
// reports false for messages it does not own.
func (app *App) Update(msg tea.Msg) (tea.Cmd, bool) {
	var err error
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case LayerLoadedMsg:
		err = app.ApplyLayerLoaded(msg)
	case suggest.ResultMsg:
		app.Search.Apply(msg)
	case suggest.ResolvedMsg:
		err = app.ApplyResolved(msg)
	case selection.HitMsg:
		err = app.Selection.Apply(msg)
	case export.ResultMsg:
		cmd = app.ApplyExport(msg)
	case ExportRecordedMsg:
		err = msg.Err
	default:
		return nil, false
	}
	if err != nil {
		app.report(err)
	}
	return cmd, true
}

func (app *App) report(err error) {
	switch {
	case errors.Is(err, feature.ErrCodedValueNotFound):
		slog.Warn("Data integrity", "error", err)
		app.Status.Error("Data integrity: " + err.Error())
	case errors.Is(err, context.Canceled):
		slog.Debug("Operation cancelled", "error", err)
	default:
		slog.Error("App error", "error", err)
		app.Status.Error(err.Error())
	}
}
