package extraction

import (
	"context"

	"finrecon/internal/config"
	"finrecon/internal/logger"
	"finrecon/internal/ocr"
)

// SelectExtractor picks the best available provider for the deployment:
// Document AI when a processor is configured, otherwise OpenAI when an API
// key is present, otherwise the offline pattern scanner.
func SelectExtractor(ctx context.Context, cfg *config.Config, ocrService ocr.OCRService) (Extractor, error) {
	log := logger.WithComponent("extract-select")

	if cfg.DocumentAIProcessorID != "" {
		extractor, err := NewDocumentAIExtractor(ctx, DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("provider", extractor.Name()).Msg("Extraction provider selected")
		return extractor, nil
	}

	if cfg.OpenAIAPIKey != "" {
		extractor, err := NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		log.Info().Str("provider", extractor.Name()).Msg("Extraction provider selected")
		return extractor, nil
	}

	log.Warn().Msg("No AI provider configured, falling back to pattern extraction")
	return NewPatternExtractor(ocrService), nil
}
