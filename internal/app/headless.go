package app

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Drive plays the UI loop without a terminal: it runs cmds and every
// follow-up command until none remain. Commands of one round run
// concurrently and their messages are applied on the calling goroutine in
// arrival order.
func (app *App) Drive(ctx context.Context, cmds ...tea.Cmd) error {
	for len(cmds) > 0 {
		msgs := make(chan tea.Msg, len(cmds))
		g, gctx := errgroup.WithContext(ctx)
		for _, cmd := range cmds {
			if cmd == nil {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				msgs <- cmd()
				return nil
			})
		}
		waitErr := make(chan error, 1)
		go func() {
			waitErr <- g.Wait()
			close(msgs)
		}()

		var next []tea.Cmd
		for msg := range msgs {
			switch msg := msg.(type) {
			case nil:
			case tea.BatchMsg:
				next = append(next, msg...)
			default:
				cmd, ok := app.Update(msg)
				if !ok {
					slog.Debug("Headless loop ignored message", "type", fmt.Sprintf("%T", msg))
					continue
				}
				if cmd != nil {
					next = append(next, cmd)
				}
			}
		}
		if err := <-waitErr; err != nil {
			return err
		}
		cmds = next
	}
	return nil
}
