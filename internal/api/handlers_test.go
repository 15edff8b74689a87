package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"finrecon/internal/extraction"
	"finrecon/internal/invoice"
	"finrecon/internal/match"
	"finrecon/internal/statement"
	"finrecon/internal/store"
	"finrecon/pkg/models"
)

type fixedExtractor struct {
	result *extraction.RawResult
}

func (f *fixedExtractor) Extract(_ context.Context, _ []byte, _ string, _ models.InvoiceType) (*extraction.RawResult, error) {
	if f.result == nil {
		return extraction.NewRawResult(), nil
	}
	return f.result, nil
}

func (f *fixedExtractor) Name() string { return "fixed" }

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	invoices := invoice.NewService(&fixedExtractor{}, mem, mem)
	engine := match.NewEngine(nil, 80, 0.20)
	return NewServer(invoices, statement.NewParser(), engine, mem), mem
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, "user-1")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func doUpload(t *testing.T, app *fiber.App, path, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(userIDHeader, "user-1")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload to %s failed: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestMissingUserHeaderIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestManualInvoiceRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	app := srv.App()

	resp := doJSON(t, app, http.MethodPost, "/api/invoices/manual", manualInvoiceRequest{
		InvoiceType: models.InvoiceTypeSales,
		ExtractedData: models.ExtractedData{
			InvoiceNo:   "S-1",
			BuyerName:   "ABC Traders",
			TotalAmount: 11800,
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	var created models.Invoice
	decodeBody(t, resp, &created)
	if !created.IsManualEntry || created.Status != models.InvoiceStatusVerified {
		t.Errorf("created = manual %v / status %s", created.IsManualEntry, created.Status)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/invoices?type=sales", nil)
	var list struct {
		Invoices []models.Invoice `json:"invoices"`
		Count    int              `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 1 || list.Invoices[0].ID != created.ID {
		t.Errorf("list = %+v, want the created invoice", list)
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/invoices/"+created.ID, nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodGet, "/api/invoices/"+created.ID, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
}

const sampleCSV = `Date,Narration,Debit,Credit
01/04/2026,NEFT/SBIN0001234/ABC TRADERS/PAYMENT,,"10,000.00"
02/04/2026,VENDOR PAYOUT,"2,500.00",
`

func uploadStatement(t *testing.T, app *fiber.App) models.BankStatement {
	t.Helper()

	resp := doUpload(t, app, "/api/statements/upload", "stmt.csv", []byte(sampleCSV), nil)
	if resp.StatusCode != fiber.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d, body: %s", resp.StatusCode, body)
	}
	var st models.BankStatement
	decodeBody(t, resp, &st)
	return st
}

func TestStatementUploadAndAutoMatch(t *testing.T) {
	srv, _ := newTestServer(t)
	app := srv.App()

	doJSON(t, app, http.MethodPost, "/api/invoices/manual", manualInvoiceRequest{
		InvoiceType: models.InvoiceTypeSales,
		ExtractedData: models.ExtractedData{
			InvoiceNo:   "S-1",
			BuyerName:   "ABC Traders",
			TotalAmount: 10000,
		},
	})

	st := uploadStatement(t, app)
	if len(st.Transactions) != 2 {
		t.Fatalf("parsed %d transactions, want 2", len(st.Transactions))
	}
	if st.TotalCredits != 10000 || st.TotalDebits != 2500 {
		t.Errorf("totals = %v/%v, want 10000/2500", st.TotalCredits, st.TotalDebits)
	}

	credit := st.Transactions[0]
	if credit.MatchType != models.MatchTypeAuto || credit.MappedBuyer != "ABC Traders" {
		t.Errorf("credit not auto-matched: %+v", credit)
	}
}

func TestStatementUploadRejectsUnknownExtension(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doUpload(t, srv.App(), "/api/statements/upload", "stmt.docx", []byte("data"), nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if !strings.Contains(body["error"], ".csv") {
		t.Errorf("error should name the allowed extensions, got %q", body["error"])
	}
}

func TestHeaderOnlyStatementUploads(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doUpload(t, srv.App(), "/api/statements/upload", "empty.csv",
		[]byte("Date,Particulars,Withdrawal,Deposit\n"), nil)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var st models.BankStatement
	decodeBody(t, resp, &st)
	if len(st.Transactions) != 0 || st.TotalCredits != 0 || st.TotalDebits != 0 {
		t.Errorf("empty statement = %+v", st)
	}
}

func TestManualMappingRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	app := srv.App()

	st := uploadStatement(t, app)

	party := "Walk-In Customer"
	resp := doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/statements/%s/transactions/0/mapping", st.ID),
		mappingRequest{PartyName: &party, MappingType: models.MappingReceivable})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("mapping status = %d, want 200", resp.StatusCode)
	}

	var tx models.Transaction
	decodeBody(t, resp, &tx)
	if tx.MatchType != models.MatchTypeManual || tx.MappedBuyer != party {
		t.Errorf("mapped transaction = %+v", tx)
	}

	// Clearing the override hands the transaction back to the engine.
	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/statements/%s/transactions/0/mapping", st.ID),
		mappingRequest{PartyName: nil})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("clear status = %d, want 200", resp.StatusCode)
	}
	decodeBody(t, resp, &tx)
	if tx.MatchType == models.MatchTypeManual {
		t.Errorf("override not cleared: %+v", tx)
	}
}

func TestBulkMappingIsAtomic(t *testing.T) {
	srv, mem := newTestServer(t)
	app := srv.App()

	creditsCSV := strings.Join([]string{
		"Date,Narration,Debit,Credit",
		"01/04/2026,NEFT/ABC TRADERS/PART ONE,,\"4,000.00\"",
		"02/04/2026,NEFT/ABC TRADERS/PART TWO,,\"6,000.00\"",
	}, "\n")
	resp := doUpload(t, app, "/api/statements/upload", "stmt.csv", []byte(creditsCSV), nil)
	var st models.BankStatement
	decodeBody(t, resp, &st)

	resp = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/statements/%s/mappings/bulk", st.ID),
		bulkMappingRequest{
			Indices:     []int{0, 99},
			PartyName:   "ABC Traders",
			MappingType: models.MappingReceivable,
		})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bulk with bad index = %d, want 400", resp.StatusCode)
	}

	overrides, err := mem.ListMappings(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(overrides) != 0 {
		t.Errorf("failed bulk left %d overrides behind", len(overrides))
	}

	resp = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/statements/%s/mappings/bulk", st.ID),
		bulkMappingRequest{
			Indices:     []int{0, 1},
			PartyName:   "ABC Traders",
			MappingType: models.MappingReceivable,
		})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("bulk status = %d, want 200", resp.StatusCode)
	}
	overrides, _ = mem.ListMappings(context.Background(), "user-1")
	if len(overrides) != 2 {
		t.Errorf("stored %d overrides, want 2", len(overrides))
	}
}

// A receivable mapping settles an incoming payment, so it only fits a credit
// transaction; the same holds for payable and debits.
func TestMappingRejectsWrongTransactionSide(t *testing.T) {
	srv, mem := newTestServer(t)
	app := srv.App()

	st := uploadStatement(t, app)

	party := "ABC Traders"
	// Transaction 1 is the debit; receivable contradicts it.
	resp := doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/statements/%s/transactions/1/mapping", st.ID),
		mappingRequest{PartyName: &party, MappingType: models.MappingReceivable})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("receivable on debit = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/statements/%s/mappings/bulk", st.ID),
		bulkMappingRequest{
			Indices:     []int{0, 1},
			PartyName:   party,
			MappingType: models.MappingReceivable,
		})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bulk across sides = %d, want 400", resp.StatusCode)
	}
	overrides, _ := mem.ListMappings(context.Background(), "user-1")
	if len(overrides) != 0 {
		t.Errorf("rejected mappings left %d overrides behind", len(overrides))
	}

	// Payable on the debit is the matching side and goes through.
	resp = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/statements/%s/transactions/1/mapping", st.ID),
		mappingRequest{PartyName: &party, MappingType: models.MappingPayable})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("payable on debit = %d, want 200", resp.StatusCode)
	}
	var tx models.Transaction
	decodeBody(t, resp, &tx)
	if tx.MatchType != models.MatchTypeManual || tx.MappedSupplier != party {
		t.Errorf("mapped transaction = %+v", tx)
	}
}

func TestStatementDeleteCascadesOverrides(t *testing.T) {
	srv, mem := newTestServer(t)
	app := srv.App()

	st := uploadStatement(t, app)

	party := "ABC Traders"
	doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/statements/%s/transactions/0/mapping", st.ID),
		mappingRequest{PartyName: &party, MappingType: models.MappingReceivable})

	resp := doJSON(t, app, http.MethodDelete, "/api/statements/"+st.ID, nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	overrides, err := mem.ListMappings(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(overrides) != 0 {
		t.Errorf("statement delete left %d overrides behind", len(overrides))
	}
}

func TestOutstandingReport(t *testing.T) {
	srv, _ := newTestServer(t)
	app := srv.App()

	doJSON(t, app, http.MethodPost, "/api/invoices/manual", manualInvoiceRequest{
		InvoiceType: models.InvoiceTypeSales,
		ExtractedData: models.ExtractedData{
			InvoiceNo:   "S-1",
			BuyerName:   "ABC Traders",
			TotalAmount: 10000,
		},
	})
	uploadStatement(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/reports/outstanding", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}

	var report models.LedgerReport
	decodeBody(t, resp, &report)
	if report.Direction != models.MappingReceivable {
		t.Errorf("direction = %s", report.Direction)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(report.Entries))
	}
	e := report.Entries[0]
	if e.TotalInvoiced != 10000 || e.TotalSettled != 10000 || e.Outstanding != 0 {
		t.Errorf("entry = %+v, want fully settled", e)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	app := srv.App()

	resp := doJSON(t, app, http.MethodGet, "/api/settings", nil)
	var settings models.UserSettings
	decodeBody(t, resp, &settings)
	if settings.CompanyGSTNo != "" {
		t.Errorf("fresh settings = %+v, want empty", settings)
	}

	resp = doJSON(t, app, http.MethodPut, "/api/settings", settingsRequest{
		CompanyName:  "My Company",
		CompanyGSTNo: "27aapfu0939f1zv",
	})
	decodeBody(t, resp, &settings)
	if settings.CompanyGSTNo != "27AAPFU0939F1ZV" {
		t.Errorf("GST not upper-cased: %q", settings.CompanyGSTNo)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/settings", nil)
	decodeBody(t, resp, &settings)
	if settings.CompanyName != "My Company" {
		t.Errorf("settings not persisted: %+v", settings)
	}
}
