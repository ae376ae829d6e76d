package scan

import (
	"strings"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
)

// csvColumn maps an extraction field to its localized header label.
type csvColumn struct {
	field string
	label string
	value func(r aicore.ExtractedRecord) string
}

// csvColumns is the fixed, ordered column list of the export.
var csvColumns = []csvColumn{
	{"documentType", "Document Type", func(r aicore.ExtractedRecord) string { return r.DocumentType }},
	{"date", "Date", func(r aicore.ExtractedRecord) string { return r.Date }},
	{"sender", "Sender", func(r aicore.ExtractedRecord) string { return r.Sender }},
	{"recipient", "Recipient", func(r aicore.ExtractedRecord) string { return r.Recipient }},
	{"subject", "Subject", func(r aicore.ExtractedRecord) string { return r.Subject }},
	{"totalAmount", "Total Amount", func(r aicore.ExtractedRecord) string { return r.TotalAmount }},
	{"currency", "Currency", func(r aicore.ExtractedRecord) string { return r.Currency }},
	{"referenceNumber", "Reference Number", func(r aicore.ExtractedRecord) string { return r.ReferenceNumber }},
	{"summary", "Summary", func(r aicore.ExtractedRecord) string { return r.Summary }},
}

// ExportCSV renders the extraction records as a CSV document.
//
// The exact byte format is contractual, chosen for spreadsheet compatibility:
// a UTF-8 byte-order mark prefix, every value wrapped in double quotes with
// internal quotes doubled, rows joined by newlines.
func ExportCSV(records []ExtractionRecord) []byte {
	var sb strings.Builder

	// UTF-8 BOM, so spreadsheet applications pick the right encoding.
	sb.WriteString("\ufeff")

	labels := make([]string, len(csvColumns))
	for i, col := range csvColumns {
		labels[i] = quoteCSV(col.label)
	}
	sb.WriteString(strings.Join(labels, ","))

	for _, record := range records {
		sb.WriteString("\n")

		values := make([]string, len(csvColumns))
		for i, col := range csvColumns {
			values[i] = quoteCSV(col.value(record.Fields))
		}
		sb.WriteString(strings.Join(values, ","))
	}

	return []byte(sb.String())
}

func quoteCSV(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
