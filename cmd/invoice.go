package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"finrecon/internal/config"
	"finrecon/internal/extraction"
	"finrecon/internal/invoice"
	"finrecon/internal/logger"
	"finrecon/internal/ocr"
	"finrecon/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice [file]",
	Short: "Extract structured data from a single invoice file",
	Long: `Run field extraction on one invoice file (PDF, JPG, PNG, TIFF) and print
the normalized record with per-field confidence scores as JSON.

The extraction provider is chosen from the environment the same way the
server does it: Document AI, then OpenAI, then the offline pattern
extractor.`,
	Example: `  # Extract a purchase invoice to stdout
  finrecon invoice bill.pdf

  # Extract a sales invoice with a custom timeout
  finrecon invoice outgoing.pdf --type sales --timeout 120`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoice,
}

// invoiceOutput is the JSON printed for one-shot extraction.
type invoiceOutput struct {
	InvoiceType      models.InvoiceType   `json:"invoice_type"`
	ExtractedData    models.ExtractedData `json:"extracted_data"`
	ConfidenceScores map[string]float64   `json:"confidence_scores"`
	Metadata         invoiceMetadata      `json:"metadata"`
}

type invoiceMetadata struct {
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size_bytes"`
	Provider           string        `json:"provider"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(invoiceCmd)

	invoiceCmd.Flags().String("type", "purchase", "Invoice direction: purchase or sales")
	invoiceCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	invoiceCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runInvoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice-cmd")

	typeFlag, _ := cmd.Flags().GetString("type")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	invoiceType := models.InvoiceType(typeFlag)
	if !invoiceType.Valid() {
		return fmt.Errorf("invalid invoice type %q, use purchase or sales", typeFlag)
	}

	filePath := args[0]
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var ocrService ocr.OCRService
	if svc, ocrErr := ocr.NewGoogleVisionOCRService(ctx); ocrErr == nil {
		ocrService = svc
	}
	extractor, err := extraction.SelectExtractor(ctx, cfg, ocrService)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", filePath).
		Str("provider", extractor.Name()).
		Str("invoice_type", string(invoiceType)).
		Msg("Starting invoice extraction")

	start := time.Now()
	raw, err := extractor.Extract(ctx, data, filepath.Base(filePath), invoiceType)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	extracted, scores := invoice.Normalize(raw, invoiceType)

	output := invoiceOutput{
		InvoiceType:      invoiceType,
		ExtractedData:    extracted,
		ConfidenceScores: scores,
		Metadata: invoiceMetadata{
			FileName:           filepath.Base(filePath),
			FileSize:           int64(len(data)),
			Provider:           extractor.Name(),
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(start),
		},
	}

	return writeJSON(output, outputPath)
}

func writeJSON(v any, outputPath string) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(outputPath, append(encoded, '\n'), 0o644)
}
