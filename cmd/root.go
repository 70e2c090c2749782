package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/covgis/meters/internal/app"
	"github.com/covgis/meters/internal/config"
	"github.com/covgis/meters/internal/db"
	"github.com/covgis/meters/internal/format"
	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/tui"
	"github.com/covgis/meters/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "meters",
	Short: "Browse water meters from an ArcGIS feature layer",
	Long: `meters is a terminal browser for a water-meter feature layer.
Search meters by service id or address, select them on a character map to see
their attributes, relabel the map and print the current view through an ArcGIS
print service.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("help").Changed {
			return cmd.Help()
		}
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}

		if err := setup(cmd); err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("query")
		if query == "-" {
			piped, ok := checkStdinPipe()
			if !ok {
				return fmt.Errorf("--query - expects the query on stdin")
			}
			query = piped
		}
		if query != "" {
			opts, err := headlessOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return handleNonInteractiveQuery(cmd.Context(), query, opts)
		}

		conn, err := db.Connect(config.DataDirectory())
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		app, err := app.New(ctx, conn, config.Get())
		if err != nil {
			slog.Error("Failed to create app", "error", err)
			return err
		}

		zone.NewGlobal()
		program := tea.NewProgram(
			tui.New(app),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(ctx),
		)

		// Services publish on their brokers; forward every event to the TUI.
		ch, cancelSubs := setupSubscriptions(app, ctx)

		tuiCtx, tuiCancel := context.WithCancel(ctx)
		var tuiWg sync.WaitGroup
		tuiWg.Add(1)
		go func() {
			defer tuiWg.Done()
			defer logging.RecoverPanic("TUI-message-handler", func() {
				attemptTUIRecovery(program)
			})

			for {
				select {
				case <-tuiCtx.Done():
					slog.Info("TUI message handler shutting down")
					return
				case msg, ok := <-ch:
					if !ok {
						slog.Info("TUI message channel closed")
						return
					}
					program.Send(msg)
				}
			}
		}()

		cleanup := func() {
			cancelSubs()
			app.Shutdown()
			tuiCancel()
			tuiWg.Wait()
			slog.Info("All goroutines cleaned up")
		}

		result, err := program.Run()
		cleanup()

		if err != nil {
			slog.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}

		slog.Info("TUI exited", "result", result)
		return nil
	},
}

// setup installs the persisted slog handler, changes into --cwd and loads
// the configuration.
func setup(cmd *cobra.Command) error {
	lvl := new(slog.LevelVar)
	textHandler := slog.NewTextHandler(logging.NewSlogWriter(), &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(textHandler))

	debug, _ := cmd.Flags().GetBool("debug")
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return fmt.Errorf("failed to change directory: %v", err)
		}
	}
	if cwd == "" {
		c, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %v", err)
		}
		cwd = c
	}
	_, err := config.Load(cwd, debug, lvl)
	return err
}

func headlessOptionsFromFlags(cmd *cobra.Command) (headlessOptions, error) {
	outputFormatStr, _ := cmd.Flags().GetString("output-format")
	outputFormat := format.OutputFormat(outputFormatStr)
	if !outputFormat.IsValid() {
		return headlessOptions{}, fmt.Errorf("invalid output format: %s", outputFormatStr)
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return headlessOptions{format: outputFormat, quiet: quiet, verbose: verbose}, nil
}

// attemptTUIRecovery tries to recover the TUI after a panic
func attemptTUIRecovery(program *tea.Program) {
	slog.Info("Attempting to recover TUI after panic")
	program.Quit()
}

// checkStdinPipe reads stdin when it is a pipe rather than a terminal.
func checkStdinPipe() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", false
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	outputCh chan<- tea.Msg,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic(fmt.Sprintf("subscription-%s", name), nil)

		subCh := subscriber(ctx)
		if subCh == nil {
			slog.Warn("subscription channel is nil", "name", name)
			return
		}

		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					slog.Info("subscription channel closed", "name", name)
					return
				}

				var msg tea.Msg = event

				select {
				case outputCh <- msg:
				case <-time.After(2 * time.Second):
					slog.Warn("message dropped due to slow consumer", "name", name)
				case <-ctx.Done():
					slog.Info("subscription cancelled", "name", name)
					return
				}
			case <-ctx.Done():
				slog.Info("subscription cancelled", "name", name)
				return
			}
		}
	}()
}

func setupSubscriptions(app *app.App, parentCtx context.Context) (chan tea.Msg, func()) {
	ch := make(chan tea.Msg, 100)

	wg := sync.WaitGroup{}
	ctx, cancel := context.WithCancel(parentCtx)

	setupSubscriber(ctx, &wg, "logging", app.Logs.Subscribe, ch)
	setupSubscriber(ctx, &wg, "status", app.Status.Subscribe, ch)
	setupSubscriber(ctx, &wg, "search", app.Search.Subscribe, ch)
	setupSubscriber(ctx, &wg, "selection", app.Selection.Subscribe, ch)
	setupSubscriber(ctx, &wg, "exports", app.Exports.Subscribe, ch)
	setupSubscriber(ctx, &wg, "history", app.History.Subscribe, ch)

	cleanupFunc := func() {
		slog.Info("Cancelling all subscriptions")
		cancel()

		waitCh := make(chan struct{})
		go func() {
			defer logging.RecoverPanic("subscription-cleanup", nil)
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-waitCh:
			slog.Info("All subscription goroutines completed successfully")
			close(ch)
		case <-time.After(5 * time.Second):
			slog.Warn("Timed out waiting for some subscription goroutines to complete")
			close(ch)
		}
	}
	return ch, cleanupFunc
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.Flags().StringP("query", "q", "", "Print suggestions for a query and exit (- reads stdin)")
	rootCmd.PersistentFlags().StringP("output-format", "f", "text", "Output format for non-interactive mode (text, json)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Hide spinner in non-interactive mode")
	rootCmd.PersistentFlags().Bool("verbose", false, "Display logs to stderr in non-interactive mode")

	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	rootCmd.AddCommand(exportCmd)
}
