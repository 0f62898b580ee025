package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

var (
	askLimit       int
	askJSON        bool
	askPersonality string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant passages for the question and generates
an answer grounded in them, with cited sources.

Without a configured language model the retrieved passages are shown
instead of a generated answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 5, "number of context passages to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVarP(&askPersonality, "personality", "p", driven.PersonalityDefault,
		"answer personality (see ~/.folio/personalities)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	var personality []string
	if personalityStore != nil && askPersonality != "" {
		lines, err := personalityStore.Load(askPersonality)
		if err != nil {
			return fmt.Errorf("load personality %q: %w", askPersonality, err)
		}
		personality = lines
	}

	answer, err := searchService.Ask(cmd.Context(), args[0], askLimit, personality)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Contexts) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Contexts {
			cmd.Printf("  [%d] %s p.%d (%.3f)\n", i+1, c.Filename, c.Page, c.Score)
		}
	}

	return nil
}
