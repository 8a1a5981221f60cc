// Command playgroundctl bundles developer tooling for the API playground.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/api-playground-backend/internal/tools/common"
	"github.com/sandeepkv93/api-playground-backend/internal/tools/feed"
	"github.com/sandeepkv93/api-playground-backend/internal/tools/loadgen"
	"github.com/sandeepkv93/api-playground-backend/internal/tools/smoke"
	"github.com/sandeepkv93/api-playground-backend/internal/tools/ui"
)

func main() {
	if err := common.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	root := &cobra.Command{Use: "playgroundctl", Short: "API playground developer tools", SilenceUsage: true}
	root.AddCommand(newLoadgenCommand(), feed.NewCommand(), smoke.NewCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLoadgenCommand() *cobra.Command {
	cfg := loadgen.Config{}
	var ci bool
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate mixed session, task, note and counter traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			fn := func(ctx context.Context) ([]string, error) {
				res, err := loadgen.Run(ctx, cfg)
				details := []string{
					fmt.Sprintf("profile=%s total=%d failures=%d", cfg.Profile, res.TotalRequests, res.Failures),
					fmt.Sprintf("status classes=%v", res.StatusClasses),
				}
				return details, err
			}
			var (
				details []string
				err     error
			)
			if ci {
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Duration+time.Minute)
				defer cancel()
				details, err = fn(ctx)
				common.PrintCIResult(err == nil, "loadgen", details, err)
			} else {
				details, err = ui.Run("loadgen", fn)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", envOr("PLAYGROUND_BASE_URL", "http://localhost:8080"), "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile: mixed, tasks, notes, counter, read")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long to generate traffic")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "target requests per second across all workers")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 4, "worker count, one session each")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed for step selection")
	cmd.Flags().BoolVar(&ci, "ci", false, "non-interactive machine-readable output")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
