package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"finrecon/internal/logger"
	"finrecon/pkg/models"
)

// OpenAIExtractor implements Extractor using a vision-capable chat model.
// Images travel as base64 data URLs; PDFs are reduced to plain text first
// because chat completions cannot attach PDF files.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIExtractor creates the extractor. Model defaults to gpt-4o.
func NewOpenAIExtractor(apiKey, model string) (*OpenAIExtractor, error) {
	const op = "NewOpenAIExtractor"

	if apiKey == "" {
		return nil, WrapExtractionError("openai", op, ErrMissingCredentials, "OPENAI_API_KEY is empty")
	}
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.WithComponent("extract-openai"),
	}, nil
}

// Name implements Extractor.
func (e *OpenAIExtractor) Name() string { return "openai" }

// Extract sends a direction-specific JSON prompt with the invoice attached
// and decodes the {"data": ..., "confidence": ...} reply into a RawResult.
func (e *OpenAIExtractor) Extract(ctx context.Context, data []byte, filename string, invoiceType models.InvoiceType) (*RawResult, error) {
	const op = "Extract"

	mimeType := mimeTypeForFile(filename)
	if mimeType == "" {
		return nil, WrapExtractionError(e.Name(), op, ErrUnsupportedFormat, filename)
	}

	userParts, err := e.buildUserMessage(data, mimeType, invoiceType)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are an expert invoice data extraction assistant for %s invoices. Extract structured data accurately. Return only valid JSON.",
					invoiceType),
			},
			userParts,
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "429") {
			return nil, WrapExtractionError(e.Name(), op, ErrQuotaExceeded, "rate limited")
		}
		return nil, WrapExtractionError(e.Name(), op, ErrExtractionFailed, err.Error())
	}
	if len(resp.Choices) == 0 {
		return nil, WrapExtractionError(e.Name(), op, ErrInvalidResponse, "no choices in completion")
	}

	result, err := decodeModelResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, WrapExtractionError(e.Name(), op, ErrInvalidResponse, err.Error())
	}

	e.log.Info().
		Str("model", e.model).
		Int("fields", len(result.Values)).
		Msg("OpenAI extraction completed")

	return result, nil
}

// buildUserMessage assembles the user turn: prompt plus image attachment,
// or prompt plus extracted PDF text.
func (e *OpenAIExtractor) buildUserMessage(data []byte, mimeType string, invoiceType models.InvoiceType) (openai.ChatCompletionMessage, error) {
	const op = "buildUserMessage"
	prompt := extractionPrompt(invoiceType)

	if mimeType == "application/pdf" {
		text, err := pdfPlainText(data)
		if err != nil {
			return openai.ChatCompletionMessage{}, WrapExtractionError(e.Name(), op, err, "pdf text extraction")
		}
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt + "\n\nInvoice Text:\n" + text,
		}, nil
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
			},
		},
	}, nil
}

// extractionPrompt returns the direction-specific field extraction prompt.
func extractionPrompt(invoiceType models.InvoiceType) string {
	role := "PURCHASE"
	billFrom := "Who is selling to you"
	billTo := "Your company - who is purchasing"
	if invoiceType == models.InvoiceTypeSales {
		role = "SALES"
		billFrom = "Your company - who is selling"
		billTo = "The customer - who is purchasing"
	}

	return fmt.Sprintf(`Extract the following information from this %s invoice.

CRITICAL: Extract BOTH supplier (Bill From) and buyer (Bill To) details.

- Invoice No
- Invoice Date (in DD/MM/YYYY format)

BILL FROM / SUPPLIER (%s):
- supplier_name, supplier_gst_no, supplier_address

BILL TO / BUYER (%s):
- buyer_name, buyer_gst_no, buyer_address

AMOUNTS:
- basic_amount (taxable amount before GST)
- gst_amount (total GST)
- total_amount (final amount)

Respond in JSON format:
{
  "data": {"invoice_no": "...", "invoice_date": "DD/MM/YYYY", "supplier_name": "...", "supplier_gst_no": "...", "supplier_address": "...", "buyer_name": "...", "buyer_gst_no": "...", "buyer_address": "...", "basic_amount": 0, "gst_amount": 0, "total_amount": 0},
  "confidence": {"invoice_no": 95, "invoice_date": 90, "supplier_name": 90, "supplier_gst_no": 90, "supplier_address": 80, "buyer_name": 90, "buyer_gst_no": 90, "buyer_address": 80, "basic_amount": 90, "gst_amount": 90, "total_amount": 95}
}`, role, billFrom, billTo)
}

// decodeModelResponse parses the model's JSON reply, tolerating markdown
// code fences, and converts it into a RawResult. Provider confidences
// arrive on a 0-100 scale.
func decodeModelResponse(content string) (*RawResult, error) {
	text := strings.TrimSpace(content)
	if strings.Contains(text, "```") {
		parts := strings.SplitN(text, "```", 3)
		if len(parts) >= 2 {
			text = parts[1]
			text = strings.TrimPrefix(text, "json")
			text = strings.TrimSpace(text)
		}
	}

	var payload struct {
		Data       map[string]any     `json:"data"`
		Confidence map[string]float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}

	result := NewRawResult()
	for _, field := range []string{
		FieldInvoiceNo, FieldInvoiceDate,
		FieldSupplierName, FieldSupplierGSTNo, FieldSupplierAddress,
		FieldBuyerName, FieldBuyerGSTNo, FieldBuyerAddress,
		FieldBasicAmount, FieldGSTAmount, FieldTotalAmount,
	} {
		raw, ok := payload.Data[field]
		if !ok || raw == nil {
			continue
		}
		conf := payload.Confidence[field] / 100

		switch v := raw.(type) {
		case string:
			// Models sometimes return amounts as strings.
			if isAmountField(field) {
				if amount, err := parseAmountString(v); err == nil {
					result.SetNumber(field, amount, conf)
				}
				continue
			}
			result.SetString(field, strings.TrimSpace(v), conf)
		case float64:
			if isAmountField(field) {
				result.SetNumber(field, v, conf)
			} else {
				result.SetString(field, strings.TrimSpace(fmt.Sprintf("%v", v)), conf)
			}
		}
	}

	return result, nil
}

func isAmountField(field string) bool {
	return field == FieldBasicAmount || field == FieldGSTAmount || field == FieldTotalAmount
}
