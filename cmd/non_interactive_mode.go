package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/covgis/meters/internal/app"
	"github.com/covgis/meters/internal/config"
	"github.com/covgis/meters/internal/db"
	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/format"
	"github.com/covgis/meters/internal/tui/components/spinner"
)

type headlessOptions struct {
	format  format.OutputFormat
	quiet   bool
	verbose bool
}

// syncWriter is a thread-safe writer that prevents interleaved output
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

func newSyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the layer extent and wait for the results",
	Long: `Submit one or more print jobs for the full layer extent, wait for every job
to resolve and list them in submission order. Exits non-zero when a job fails.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		opts, err := headlessOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", count)
		}
		title, _ := cmd.Flags().GetString("title")
		return handleNonInteractiveExport(cmd.Context(), count, title, opts)
	},
}

func init() {
	exportCmd.Flags().IntP("count", "n", 1, "Number of export jobs to submit")
	exportCmd.Flags().StringP("title", "t", "", "Title template, {n} is replaced by the job number (default from config)")
}

// startHeadless builds the app without a terminal UI. stop shuts it down
// and clears the spinner.
func startHeadless(ctx context.Context, opts headlessOptions, message string) (a *app.App, stop func(), err error) {
	slog.Info("Running in non-interactive mode", "format", opts.format, "quiet", opts.quiet, "verbose", opts.verbose)

	if opts.quiet && opts.verbose {
		return nil, nil, fmt.Errorf("--quiet and --verbose flags cannot be used together")
	}

	if opts.verbose {
		charmLogger := charmlog.NewWithOptions(newSyncWriter(os.Stderr), charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "meters",
		})
		charmlog.SetDefault(charmLogger)
		slog.SetDefault(slog.New(charmLogger))
		charmLogger.Info("Verbose logging enabled")
	}

	conn, err := db.Connect(config.DataDirectory())
	if err != nil {
		return nil, nil, err
	}

	a, err = app.New(ctx, conn, config.Get())
	if err != nil {
		conn.Close()
		slog.Error("Failed to create app", "error", err)
		return nil, nil, err
	}

	var s *spinner.Spinner
	if !opts.quiet {
		s = spinner.NewSpinner(message)
		s.Start()
	}
	var once sync.Once
	stop = func() {
		once.Do(func() {
			if s != nil {
				s.Stop()
			}
			a.Shutdown()
			conn.Close()
		})
	}
	return a, stop, nil
}

// loadLayer runs the layer load inline so its failure ends the command.
func loadLayer(a *app.App) error {
	msg, _ := a.LoadLayer()().(app.LayerLoadedMsg)
	return a.ApplyLayerLoaded(msg)
}

// handleNonInteractiveQuery prints the suggestions for a single query.
func handleNonInteractiveQuery(ctx context.Context, query string, opts headlessOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, stop, err := startHeadless(ctx, opts, "Searching...")
	if err != nil {
		return err
	}
	defer stop()

	if a.Config.Search.Mode == config.SearchModeLocal {
		if err := loadLayer(a); err != nil {
			return err
		}
	}
	if err := a.Drive(ctx, a.Query(query)); err != nil {
		return err
	}

	out, err := format.Suggestions(query, a.Search.State().Items, opts.format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	stop()
	fmt.Println(out)
	return nil
}

// handleNonInteractiveExport submits count print jobs against the layer
// extent and prints the jobs once all of them resolved.
func handleNonInteractiveExport(ctx context.Context, count int, title string, opts headlessOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, stop, err := startHeadless(ctx, opts, fmt.Sprintf("Printing %d export(s)...", count))
	if err != nil {
		return err
	}
	defer stop()

	if title != "" {
		a.Config.Print.TitleTemplate = title
	}
	if err := loadLayer(a); err != nil {
		return err
	}

	cmds := make([]tea.Cmd, 0, count)
	for range count {
		cmds = append(cmds, a.SubmitExport())
	}
	if err := a.Drive(ctx, cmds...); err != nil {
		return err
	}

	jobs := a.Exports.Snapshot().Jobs
	out, err := format.Jobs(jobs, opts.format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	stop()
	fmt.Println(out)

	failed := 0
	for _, job := range jobs {
		if job.Status == export.Failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(jobs))
	}
	return nil
}
