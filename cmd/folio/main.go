// Command folio is the Folio CLI entrypoint. It wires the driven
// adapters (SQLite store, flat vector index, poppler extractor,
// embedding and LLM providers) into the core services and hands them to
// the cobra command tree.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	configfile "github.com/custodia-labs/folio-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/folio-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/folio-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/folio-cli/internal/adapters/driven/extractor/poppler"
	openaillm "github.com/custodia-labs/folio-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/folio-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/folio-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/folio-cli/internal/chunker"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/services"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// version is set at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	// Missing .env files are fine; API keys may come from the shell.
	if err := configfile.LoadEnv(); err != nil {
		logger.Debug("loading .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetBootstrap(buildServices)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildServices constructs the full service graph. Called lazily by the
// command layer once global flags are parsed, so the --data-dir flag is
// honored.
func buildServices(dataDir string) (cli.Services, error) {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening config store: %w", err)
	}

	dataDir, err = resolveDataDir(dataDir, cfg)
	if err != nil {
		return cli.Services{}, err
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening metadata store: %w", err)
	}

	index, err := flat.Open(filepath.Join(dataDir, "vectors.idx"))
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening vector index: %w", err)
	}

	size := cfg.GetInt("chunk_size")
	if size == 0 {
		size = chunker.DefaultSize
	}
	overlap := cfg.GetInt("chunk_overlap")
	if overlap == 0 {
		overlap = chunker.DefaultOverlap
	}
	ch, err := chunker.New(size, overlap)
	if err != nil {
		return cli.Services{}, fmt.Errorf("invalid chunking config: %w", err)
	}

	personalities, err := configfile.NewPersonalityStore("")
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening personality store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return cli.Services{}, err
	}
	llm := buildLLM(cfg)

	extractor := poppler.New()
	uploadDir := filepath.Join(dataDir, "uploads")

	return cli.Services{
		Ingest:        services.NewIngestService(store, index, embedder, extractor, ch, uploadDir),
		Search:        services.NewSearchService(store, index, embedder, llm),
		Document:      services.NewDocumentService(store, index, embedder),
		Personalities: personalities,
		Embedding:     embedder,
		LLM:           llm,
		Index:         index,
		Store:         store,
	}, nil
}

// resolveDataDir applies the precedence flag > FOLIO_DATA_DIR > config >
// ~/.folio/data.
func resolveDataDir(flagDir string, cfg driven.ConfigStore) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	if dir := os.Getenv("FOLIO_DATA_DIR"); dir != "" {
		return dir, nil
	}
	if dir := cfg.GetString("data_dir"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".folio", "data"), nil
}

// buildEmbedder selects the embedding provider. OpenAI is used when an
// API key is available, Ollama when explicitly configured. A nil return
// leaves ingestion disabled but search-free commands working.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := os.Getenv("FOLIO_EMBEDDING_PROVIDER")
	if provider == "" {
		provider = cfg.GetString("embedding_provider")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("openai_api_key")
	}

	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	switch provider {
	case "openai":
		if apiKey == "" {
			logger.Debug("no OpenAI API key; embeddings disabled")
			return nil, nil
		}
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString("openai_base_url"),
			Model:      cfg.GetString("embedding_model"),
			Dimensions: cfg.GetInt("embedding_dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil

	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("ollama_base_url"),
			Model:      cfg.GetString("embedding_model"),
			Dimensions: cfg.GetInt("embedding_dimensions"),
		}), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildLLM constructs the answer generator, or returns nil when no API
// key is configured. Ask degrades to returning passages in that case.
func buildLLM(cfg driven.ConfigStore) driven.LLMService {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("openai_api_key")
	}
	if apiKey == "" {
		return nil
	}

	svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("openai_base_url"),
		Model:   cfg.GetString("llm_model"),
	})
	if err != nil {
		logger.Debug("configuring LLM: %v", err)
		return nil
	}
	return svc
}
