package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finrecon/internal/api"
	"finrecon/internal/config"
	"finrecon/internal/extraction"
	"finrecon/internal/invoice"
	"finrecon/internal/logger"
	"finrecon/internal/match"
	"finrecon/internal/ocr"
	"finrecon/internal/statement"
	"finrecon/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the reconciliation API on the configured listen address.

The extraction provider is chosen from the environment: Document AI when a
processor is configured, OpenAI when an API key is present, otherwise the
offline pattern extractor. With POSTGRES_DSN set the server persists to
Postgres; without it everything lives in memory.

Environment variables:
  LISTEN_ADDR                - Listen address (default :8080)
  OPENAI_API_KEY             - OpenAI API key
  GOOGLE_CLOUD_PROJECT       - Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID   - Document AI invoice processor ID
  POSTGRES_DSN               - Postgres connection string`,
	Example: `  # Serve on the default port with the in-memory store
  finrecon serve

  # Serve with a custom address
  LISTEN_ADDR=:9000 finrecon serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// OCR is optional; without Vision credentials the pattern extractor
	// simply rejects image files.
	var ocrService ocr.OCRService
	if svc, err := ocr.NewGoogleVisionOCRService(ctx); err == nil {
		ocrService = svc
	} else {
		log.Warn().Err(err).Msg("Vision OCR unavailable")
	}

	extractor, err := extraction.SelectExtractor(ctx, cfg, ocrService)
	if err != nil {
		return err
	}

	server := api.NewServer(
		invoice.NewService(extractor, st, st),
		statement.NewParser(),
		match.NewEngine(match.LevenshteinSimilarity{}, cfg.MatchAutoAcceptScore, cfg.MatchAmountTolerance),
		st,
	)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		log.Info().Msg("Shutting down HTTP server")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	return server.Listen(cfg.ListenAddr)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.PostgresDSN != "" {
		return store.NewPostgresStore(ctx, cfg.PostgresDSN)
	}
	return store.NewMemoryStore(), nil
}
