package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest PDF files into the index",
	Long: `Extracts, chunks, embeds, and indexes one or more PDF files.
Re-ingesting a file with identical bytes is a no-op: the existing
document is reused and nothing is re-embedded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var failed int
	for _, path := range args {
		result, err := ingestService.Ingest(cmd.Context(), path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		if result.Duplicate {
			cmd.Printf("  %s: already ingested (document %s, %d chunks)\n",
				result.Filename, result.DocumentID, result.ChunksIndexed)
			continue
		}
		cmd.Printf("  %s: %d pages, %d chunks indexed (document %s)\n",
			result.Filename, result.Pages, result.ChunksIndexed, result.DocumentID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
