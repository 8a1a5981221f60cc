package smoke

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/api-playground-backend/internal/tools/common"
	"github.com/sandeepkv93/api-playground-backend/internal/tools/ui"
)

func NewCommand() *cobra.Command {
	var (
		baseURL string
		ci      bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the session, task, stats and activity flow against a live API",
		RunE: func(cmd *cobra.Command, args []string) error {
			fn := func(ctx context.Context) ([]string, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return Run(ctx, baseURL)
			}
			var (
				details []string
				err     error
			)
			if ci {
				details, err = fn(cmd.Context())
				common.PrintCIResult(err == nil, "smoke", details, err)
			} else {
				details, err = ui.Run("smoke", fn)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().BoolVar(&ci, "ci", false, "non-interactive machine-readable output")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	return cmd
}
