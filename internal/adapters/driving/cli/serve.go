package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio-cli/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the REST API for uploads, search, ask, and document
management. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil,
		"allowed CORS origins (default: any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || searchService == nil || documentService == nil {
		return errors.New("services not configured")
	}

	server := httpapi.NewServer(
		httpapi.Config{Addr: serveAddr, AllowedOrigins: serveOrigins},
		ingestService,
		searchService,
		documentService,
		personalityStore,
		embeddingService,
		llmService,
		vectorIndex,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	cmd.Printf("Serving API on %s (ctrl-c to stop)...\n", serveAddr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
