package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc", "docs"},
	Short:   "Manage ingested documents",
	Long:    `List, view, edit, reindex, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentSetCmd = &cobra.Command{
	Use:   "set [doc-id]",
	Short: "Edit document metadata",
	Long:  `Updates the title, author, or publication year. Flags not given leave the field unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Repair a document's missing index entries",
	Long:  `Re-embeds and re-indexes the document's chunks that lost (or never received) their vector mappings, typically after a failed ingestion.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReindex,
}

// Metadata edit flags.
var (
	setTitle  string
	setAuthor string
	setYear   int
)

func init() {
	documentSetCmd.Flags().StringVar(&setTitle, "title", "", "new display title")
	documentSetCmd.Flags().StringVar(&setAuthor, "author", "", "new author")
	documentSetCmd.Flags().IntVar(&setYear, "year", 0, "new publication year")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentSetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReindexCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		if docs[i].Author != "" {
			cmd.Printf("    Author: %s\n", docs[i].Author)
		}
		cmd.Printf("    Pages: %d\n", docs[i].Pages)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:       %s\n", doc.Title)
	cmd.Printf("  Filename:    %s\n", doc.Filename)
	if doc.Author != "" {
		cmd.Printf("  Author:      %s\n", doc.Author)
	}
	if doc.Year != 0 {
		cmd.Printf("  Year:        %d\n", doc.Year)
	}
	cmd.Printf("  Pages:       %d\n", doc.Pages)
	cmd.Printf("  Fingerprint: %s\n", doc.Fingerprint)
	cmd.Printf("  Uploaded:    %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func runDocumentSet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if setTitle == "" && setAuthor == "" && setYear == 0 {
		return errors.New("nothing to change: pass --title, --author, or --year")
	}

	doc, err := documentService.UpdateMetadata(cmd.Context(), args[0], setTitle, setAuthor, setYear)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	cmd.Printf("Updated %s: %s\n", doc.ID, doc.Title)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	result, err := documentService.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s: %d vectors, %d chunks removed.\n",
		result.DocumentID, result.VectorsRemoved, result.ChunksDeleted)
	if result.IndexCleanup != "" {
		cmd.Printf("Warning: vector index cleanup failed (%s); stale vectors will be skipped.\n",
			result.IndexCleanup)
	}
	return nil
}

func runDocumentReindex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	result, err := documentService.Reindex(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to reindex document: %w", err)
	}

	if result.ChunksEmbedded == 0 {
		cmd.Printf("Document %s needs no repair.\n", result.DocumentID)
		return nil
	}
	cmd.Printf("Reindexed %s: %d chunks re-embedded.\n", result.DocumentID, result.ChunksEmbedded)
	return nil
}
