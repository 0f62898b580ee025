package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio-cli/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new PDFs",
	Long: `Watches a directory and ingests any PDF file created or modified in
it. Runs until interrupted. Duplicate files are detected by content
fingerprint and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(args[0], ingestService, func(path string, err error) {
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			return
		}
		cmd.Printf("  ingested %s\n", path)
	})

	cmd.Printf("Watching %s for PDFs (ctrl-c to stop)...\n", args[0])

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
