// Package app composes the browser: the map view, the suggestion
// coordinator, the selection controller and the export tracker, wired to
// their ArcGIS collaborators.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/covgis/meters/internal/arcgis"
	"github.com/covgis/meters/internal/config"
	"github.com/covgis/meters/internal/db"
	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/history"
	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/mapview"
	"github.com/covgis/meters/internal/selection"
	"github.com/covgis/meters/internal/status"
	"github.com/covgis/meters/internal/storage"
	"github.com/covgis/meters/internal/suggest"
)

// Layer is the feature layer collaborator.
type Layer interface {
	Load(ctx context.Context) (arcgis.LayerInfo, error)
	Domain(ctx context.Context, field string) (*feature.CodedValueDomain, error)
	QueryExtent(ctx context.Context, where string, outWKID int) (feature.Extent, error)
	QueryAll(ctx context.Context, q arcgis.Query) ([]feature.Feature, error)
}

// Collaborators are the external services the app talks to.
type Collaborators struct {
	Layer      Layer
	Provider   suggest.Provider
	Printer    export.Printer
	History    history.Service
	LocalIndex *suggest.LocalProvider
}

type App struct {
	Logs    logging.Service
	Status  status.Service
	History history.Service

	Config *config.Config

	View      *mapview.View
	LayerView *mapview.LayerView
	Search    *suggest.Coordinator
	Selection *selection.Controller
	Exports   *export.Tracker

	ctx   context.Context
	layer Layer
	local *suggest.LocalProvider
	store *storage.Storage
}

// New builds the app against the configured services. conn backs the log
// and export history.
func New(ctx context.Context, conn *sql.DB, cfg *config.Config) (*App, error) {
	err := logging.InitService(conn)
	if err != nil {
		slog.Error("Failed to initialize logging service", "error", err)
		return nil, err
	}
	err = status.InitService()
	if err != nil {
		slog.Error("Failed to initialize status service", "error", err)
		return nil, err
	}

	client := arcgis.NewClient(arcgis.ClientConfig{
		Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
	})

	layerURL := cfg.Layer.URL
	if layerURL == "" {
		resolveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		layerURL, err = arcgis.ResolveItemURL(resolveCtx, client, cfg.PortalURL, cfg.Layer.ItemID)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("resolve layer: %w", err)
		}
		slog.Info("Resolved layer from portal item", "item", cfg.Layer.ItemID, "url", layerURL)
	}
	layer := arcgis.NewFeatureLayer(client, cfg.Layer.ID, layerURL)

	c := Collaborators{Layer: layer}
	if cfg.Search.Mode == config.SearchModeLocal {
		c.LocalIndex = suggest.NewLocalProvider(cfg.Layer.SuggestionTemplate, cfg.Search.MaxSuggestions)
		c.Provider = c.LocalIndex
	} else {
		c.Provider = arcgis.NewSearchSource(layer, cfg.Layer.SearchFields, cfg.Layer.SuggestionTemplate,
			cfg.Search.MaxSuggestions, cfg.View.OutWkid)
	}

	printOpts := []arcgis.PrintOption{arcgis.WithOperationalLayer(cfg.Layer.ID, cfg.Layer.Title, layerURL)}
	if cfg.Print.TemplateFile != "" {
		wm, err := arcgis.LoadWebMapTemplate(cfg.Print.TemplateFile)
		if err != nil {
			return nil, err
		}
		printOpts = append(printOpts, arcgis.WithWebMap(wm))
	}
	c.Printer = arcgis.NewPrintService(client, cfg.Print.URL, printOpts...)

	var store *storage.Storage
	if cfg.Print.Archive {
		store, err = storage.Open(config.DataDirectory())
		if err != nil {
			return nil, err
		}
	}
	c.History = history.NewService(db.New(conn), uuid.NewString(), store, client)

	app := newApp(ctx, cfg, c)
	app.Logs = logging.GetService()
	app.Status = status.GetService()
	app.store = store
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, c Collaborators) *App {
	view := mapview.NewView(80, 24)
	lv := view.AddLayer(cfg.Layer.ID, cfg.Layer.Title)
	lv.SetMinScale(cfg.Layer.MinScale)
	lv.SetLabeling(mapview.Labeling{Field: cfg.TUI.LabelField, Visible: cfg.TUI.LabelsVisible})

	app := &App{
		Status:    status.GetService(),
		History:   c.History,
		Config:    cfg,
		View:      view,
		LayerView: lv,
		ctx:       ctx,
		layer:     c.Layer,
		local:     c.LocalIndex,
	}
	app.Search = suggest.NewCoordinator(c.Provider,
		suggest.WithContext(ctx),
		suggest.WithMaxSuggestions(cfg.Search.MaxSuggestions),
		suggest.WithDebounce(time.Duration(cfg.Search.DebounceMs)*time.Millisecond),
	)
	app.Selection = selection.NewController(ctx, view, selection.TrackLayer(lv))
	app.Exports = export.NewTracker(ctx, c.Printer, app.printTemplate)
	return app
}

func (app *App) printTemplate() export.Template {
	return export.Template{
		Format: app.Config.Print.Format,
		Layout: app.Config.Print.LayoutTemplate,
		Extent: app.View.Extent(),
		Scale:  app.View.Scale(),
	}
}

// Shutdown releases the selection highlight, cancels outstanding searches
// and closes all subscriptions.
func (app *App) Shutdown() {
	app.Search.Close()
	app.Selection.Close()
	app.Exports.Close()
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			slog.Error("Failed to close artifact storage", "error", err)
		}
	}
}
