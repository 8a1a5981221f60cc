package feed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
)

type options struct {
	baseURL string
	topic   string
	ci      bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Tail the live activity feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if opts.ci {
				return Tail(ctx, http.DefaultClient, opts.baseURL, opts.topic, func(ev realtime.Event) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), FormatEvent(ev))
					return err
				})
			}
			return runInteractive(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "stream topic (server default when empty)")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "print one line per event instead of the interactive view")
	return cmd
}

func runInteractive(ctx context.Context, opts *options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newModel("activity feed "+opts.baseURL), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		err := Tail(ctx, http.DefaultClient, opts.baseURL, opts.topic, func(ev realtime.Event) error {
			program.Send(lineMsg(FormatEvent(ev)))
			return nil
		})
		program.Send(streamEndedMsg{err: err})
	}()
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run feed ui: %w", err)
	}
	return nil
}
