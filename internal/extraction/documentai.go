package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"finrecon/internal/logger"
	"finrecon/pkg/models"
)

const (
	// MaxDocumentSizeBytes is the maximum document size for synchronous processing (20MB)
	MaxDocumentSizeBytes = 20 * 1024 * 1024
)

// DocumentAIConfig holds configuration for the Google Document AI extractor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu"). Should match
	// where the invoice processor was created.
	Location string

	// ProcessorID is the Document AI invoice processor ID.
	ProcessorID string

	// ProcessorVersion pins a particular processor version. Empty uses the default.
	ProcessorVersion string

	// Timeout is the maximum time to wait for processing. Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIExtractor implements Extractor using Google Document AI's
// invoice processor. Entity confidences are carried through unchanged.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates the extractor with credentials from the
// environment (GOOGLE_CREDENTIALS inline JSON or GOOGLE_APPLICATION_CREDENTIALS path).
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapExtractionError("documentai", op, ErrInvalidConfiguration,
			"project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapExtractionError("documentai", op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapExtractionError("documentai", op, err,
			fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("extract-documentai"),
	}, nil
}

// Name implements Extractor.
func (p *DocumentAIExtractor) Name() string { return "documentai" }

// Extract runs the invoice processor and maps its entities onto the
// canonical field set. The invoice type is not needed: Document AI labels
// both parties, and the normalizer picks the tracked side.
func (p *DocumentAIExtractor) Extract(ctx context.Context, data []byte, filename string, _ models.InvoiceType) (*RawResult, error) {
	const op = "Extract"

	if len(data) > MaxDocumentSizeBytes {
		return nil, WrapExtractionError(p.Name(), op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	mimeType := mimeTypeForFile(filename)
	if mimeType == "" {
		return nil, WrapExtractionError(p.Name(), op, ErrUnsupportedFormat, filepath.Ext(filename))
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.translateError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapExtractionError(p.Name(), op, ErrExtractionFailed, "no document in response")
	}

	return p.mapEntities(resp.Document), nil
}

// processorName constructs the full processor resource name.
func (p *DocumentAIExtractor) processorName() string {
	if p.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			p.config.ProjectID, p.config.Location, p.config.ProcessorID, p.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
}

// translateError converts Document AI errors to extraction errors.
func (p *DocumentAIExtractor) translateError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapExtractionError(p.Name(), op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"):
		return WrapExtractionError(p.Name(), op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapExtractionError(p.Name(), op, ErrInvalidConfiguration,
			fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapExtractionError(p.Name(), op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return WrapExtractionError(p.Name(), op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapExtractionError(p.Name(), op, ErrExtractionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// mapEntities converts Document AI invoice entities to a RawResult.
func (p *DocumentAIExtractor) mapEntities(doc *documentaipb.Document) *RawResult {
	result := NewRawResult()

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		conf := float64(entity.Confidence)

		p.log.Debug().
			Str("entity_type", entity.Type).
			Str("value", value).
			Float64("confidence", conf).
			Msg("Processing Document AI entity")

		switch entity.Type {
		case "invoice_id", "invoice_number":
			result.SetString(FieldInvoiceNo, value, conf)
		case "invoice_date":
			if date, err := p.entityDate(entity); err == nil {
				result.SetString(FieldInvoiceDate, date.Format("02/01/2006"), conf)
			}
		case "supplier_name", "vendor_name":
			result.SetString(FieldSupplierName, value, conf)
		case "supplier_tax_id", "supplier_registration":
			result.SetString(FieldSupplierGSTNo, value, conf)
		case "supplier_address":
			result.SetString(FieldSupplierAddress, value, conf)
		case "receiver_name", "buyer_name", "customer_name":
			result.SetString(FieldBuyerName, value, conf)
		case "receiver_tax_id", "buyer_tax_id":
			result.SetString(FieldBuyerGSTNo, value, conf)
		case "receiver_address", "buyer_address":
			result.SetString(FieldBuyerAddress, value, conf)
		case "net_amount", "subtotal_amount":
			if amount, err := p.entityAmount(entity); err == nil {
				result.SetNumber(FieldBasicAmount, amount, conf)
			} else {
				p.log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract net amount")
			}
		case "total_tax_amount", "vat_amount":
			if amount, err := p.entityAmount(entity); err == nil {
				result.SetNumber(FieldGSTAmount, amount, conf)
			} else {
				p.log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract tax amount")
			}
		case "total_amount", "gross_amount":
			if amount, err := p.entityAmount(entity); err == nil {
				result.SetNumber(FieldTotalAmount, amount, conf)
			} else {
				p.log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract total amount")
			}
		}
	}

	p.log.Info().
		Int("fields", len(result.Values)).
		Msg("Document AI extraction completed")

	return result
}

// entityDate safely extracts a date value from a Document AI entity.
func (p *DocumentAIExtractor) entityDate(entity *documentaipb.Document_Entity) (time.Time, error) {
	if entity.NormalizedValue != nil {
		if dateValue := entity.NormalizedValue.GetDateValue(); dateValue != nil {
			return time.Date(
				int(dateValue.Year),
				time.Month(dateValue.Month),
				int(dateValue.Day),
				0, 0, 0, 0,
				time.UTC,
			), nil
		}
	}

	// Fallback to parsing mention text
	dateStr := strings.TrimSpace(entity.MentionText)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}

	formats := []string{
		"02/01/2006",
		"2006-01-02",
		"02-01-2006",
		"02.01.2006",
		"2 January 2006",
		"2 Jan 2006",
		"January 2, 2006",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// entityAmount safely extracts a monetary value from a Document AI entity.
func (p *DocumentAIExtractor) entityAmount(entity *documentaipb.Document_Entity) (float64, error) {
	if entity.NormalizedValue != nil {
		if moneyValue := entity.NormalizedValue.GetMoneyValue(); moneyValue != nil {
			return float64(moneyValue.Units) + float64(moneyValue.Nanos)/1e9, nil
		}
	}

	amountStr := strings.TrimSpace(entity.MentionText)
	if amountStr == "" {
		return 0, fmt.Errorf("empty amount value")
	}
	return parseAmountString(amountStr)
}

// mimeTypeForFile maps an invoice filename to a Document AI mime type,
// or "" for unsupported extensions.
func mimeTypeForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return ""
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIExtractor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
