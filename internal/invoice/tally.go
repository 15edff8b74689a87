package invoice

import (
	"encoding/xml"
	"fmt"
	"time"

	"finrecon/pkg/models"
)

// Tally import XML structures. Only the voucher slice of the Tally schema is
// modelled; the rest of the envelope is fixed boilerplate.

type tallyEnvelope struct {
	XMLName xml.Name    `xml:"ENVELOPE"`
	Header  tallyHeader `xml:"HEADER"`
	Body    tallyBody   `xml:"BODY"`
}

type tallyHeader struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type tallyBody struct {
	ImportData tallyImportData `xml:"IMPORTDATA"`
}

type tallyImportData struct {
	RequestDesc tallyRequestDesc `xml:"REQUESTDESC"`
	RequestData tallyRequestData `xml:"REQUESTDATA"`
}

type tallyRequestDesc struct {
	ReportName string `xml:"REPORTNAME"`
}

type tallyRequestData struct {
	Messages []tallyMessage `xml:"TALLYMESSAGE"`
}

type tallyMessage struct {
	Voucher tallyVoucher `xml:"VOUCHER"`
}

type tallyVoucher struct {
	VchType         string             `xml:"VCHTYPE,attr"`
	Action          string             `xml:"ACTION,attr"`
	Date            string             `xml:"DATE"`
	VoucherTypeName string             `xml:"VOUCHERTYPENAME"`
	VoucherNumber   string             `xml:"VOUCHERNUMBER"`
	PartyLedger     string             `xml:"PARTYLEDGERNAME"`
	Narration       string             `xml:"NARRATION"`
	LedgerEntries   []tallyLedgerEntry `xml:"ALLLEDGERENTRIES.LIST"`
}

type tallyLedgerEntry struct {
	LedgerName       string `xml:"LEDGERNAME"`
	IsDeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
	Amount           string `xml:"AMOUNT"`
}

// buildTallyXML renders verified invoices as a Tally voucher import file.
// Purchase invoices become Purchase vouchers (party credited, expense and
// GST debited); sales invoices the reverse.
func buildTallyXML(invoices []*models.Invoice) ([]byte, error) {
	messages := make([]tallyMessage, 0, len(invoices))
	for _, inv := range invoices {
		messages = append(messages, tallyMessage{Voucher: voucherFor(inv)})
	}

	envelope := tallyEnvelope{
		Header: tallyHeader{TallyRequest: "Import Data"},
		Body: tallyBody{
			ImportData: tallyImportData{
				RequestDesc: tallyRequestDesc{ReportName: "Vouchers"},
				RequestData: tallyRequestData{Messages: messages},
			},
		},
	}

	out, err := xml.MarshalIndent(envelope, "", " ")
	if err != nil {
		return nil, fmt.Errorf("marshal tally envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func voucherFor(inv *models.Invoice) tallyVoucher {
	data := inv.ExtractedData
	party := inv.Counterparty()

	vchType := "Purchase"
	accountLedger := "Purchase Account"
	if inv.Type == models.InvoiceTypeSales {
		vchType = "Sales"
		accountLedger = "Sales Account"
	}

	// Tally sign convention: debits are negative with ISDEEMEDPOSITIVE Yes.
	partyEntry := tallyLedgerEntry{
		LedgerName:       party,
		IsDeemedPositive: "No",
		Amount:           formatTallyAmount(data.TotalAmount),
	}
	accountEntry := tallyLedgerEntry{
		LedgerName:       accountLedger,
		IsDeemedPositive: "Yes",
		Amount:           formatTallyAmount(-data.BasicAmount),
	}
	gstEntry := tallyLedgerEntry{
		LedgerName:       "GST",
		IsDeemedPositive: "Yes",
		Amount:           formatTallyAmount(-data.GSTAmount),
	}
	if inv.Type == models.InvoiceTypeSales {
		partyEntry.IsDeemedPositive = "Yes"
		partyEntry.Amount = formatTallyAmount(-data.TotalAmount)
		accountEntry.IsDeemedPositive = "No"
		accountEntry.Amount = formatTallyAmount(data.BasicAmount)
		gstEntry.IsDeemedPositive = "No"
		gstEntry.Amount = formatTallyAmount(data.GSTAmount)
	}

	entries := []tallyLedgerEntry{partyEntry, accountEntry}
	if data.GSTAmount != 0 {
		entries = append(entries, gstEntry)
	}

	return tallyVoucher{
		VchType:         vchType,
		Action:          "Create",
		Date:            tallyDate(data.InvoiceDate),
		VoucherTypeName: vchType,
		VoucherNumber:   data.InvoiceNo,
		PartyLedger:     party,
		Narration:       fmt.Sprintf("Invoice %s from %s", data.InvoiceNo, party),
		LedgerEntries:   entries,
	}
}

// tallyDate converts DD/MM/YYYY to Tally's YYYYMMDD. Unparseable dates pass
// through unchanged so the import surfaces them instead of silently dropping.
func tallyDate(invoiceDate string) string {
	t, err := time.Parse("02/01/2006", invoiceDate)
	if err != nil {
		return invoiceDate
	}
	return t.Format("20060102")
}

func formatTallyAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
