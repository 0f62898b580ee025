// Package cli implements the Folio command-line interface using cobra.
// Commands are thin adapters: they parse flags, call driving ports, and
// format output. All business logic lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected services. Set by the bootstrap in cmd/folio via SetServices
// before Execute runs.
var (
	ingestService    driving.IngestService
	searchService    driving.SearchService
	documentService  driving.DocumentService
	personalityStore driven.PersonalityStore
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	vectorIndex      driven.VectorIndex
	docStore         driven.DocumentStore
)

// Services bundles everything the commands need.
type Services struct {
	Ingest        driving.IngestService
	Search        driving.SearchService
	Document      driving.DocumentService
	Personalities driven.PersonalityStore

	// Driven ports used directly by status and watch.
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Index     driven.VectorIndex
	Store     driven.DocumentStore
}

// SetServices injects the services the commands depend on.
func SetServices(s Services) {
	ingestService = s.Ingest
	searchService = s.Search
	documentService = s.Document
	personalityStore = s.Personalities
	embeddingService = s.Embedding
	llmService = s.LLM
	vectorIndex = s.Index
	docStore = s.Store
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// bootstrapFn builds the services once flags are parsed. Set by
// cmd/folio via SetBootstrap; commands that need no services (version,
// help) run without it.
var bootstrapFn func(dataDir string) (Services, error)

// SetBootstrap registers the service builder invoked before the first
// command that needs services.
func SetBootstrap(fn func(dataDir string) (Services, error)) {
	bootstrapFn = fn
}

// Global flags.
var (
	verboseFlag bool
	dataDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio - ask questions of your PDF library",
	Long: `Folio ingests PDF documents into a local retrieval index and answers
questions about them with cited sources.

Start by ingesting a few PDFs, then search or ask:

  folio ingest paper.pdf thesis.pdf
  folio search "tidal forces"
  folio ask "what causes spring tides?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)

		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		if ingestService != nil || bootstrapFn == nil {
			return nil
		}

		services, err := bootstrapFn(dataDirFlag)
		if err != nil {
			return err
		}
		SetServices(services)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.folio/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
