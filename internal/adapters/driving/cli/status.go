package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// pingTimeout bounds the provider reachability checks.
const pingTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and provider status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cmd.Println("Folio status")
	cmd.Println()

	if docStore != nil {
		docs, err := docStore.ListDocuments(cmd.Context())
		if err != nil {
			cmd.Printf("  Documents:    error: %v\n", err)
		} else {
			cmd.Printf("  Documents:    %d\n", len(docs))
		}
	}

	if vectorIndex != nil {
		cmd.Printf("  Vectors:      %d", vectorIndex.Count())
		if dim := vectorIndex.Dimension(); dim > 0 {
			cmd.Printf(" (dimension %d)", dim)
		}
		cmd.Println()
	}

	if embeddingService == nil {
		cmd.Println("  Embeddings:   not configured")
	} else {
		cmd.Printf("  Embeddings:   %s %s\n", embeddingService.ModelName(), pingStatus(cmd.Context(), embeddingService.Ping))
	}

	if llmService == nil {
		cmd.Println("  LLM:          not configured (ask returns passages only)")
	} else {
		cmd.Printf("  LLM:          %s %s\n", llmService.ModelName(), pingStatus(cmd.Context(), llmService.Ping))
	}

	return nil
}

func pingStatus(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		return "(unreachable)"
	}
	return "(ok)"
}
