package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
)

func TestExportCSVHeaderOnly(t *testing.T) {
	out := string(ExportCSV(nil))

	require.True(t, strings.HasPrefix(out, "\ufeff"))

	body := strings.TrimPrefix(out, "\ufeff")
	require.Equal(t, `"Document Type","Date","Sender","Recipient","Subject",`+
		`"Total Amount","Currency","Reference Number","Summary"`, body)
}

func TestExportCSVQuoting(t *testing.T) {
	records := []ExtractionRecord{{
		ID:        "r1",
		Timestamp: 1,
		Fields: aicore.ExtractedRecord{
			DocumentType:    "invoice",
			Date:            "2026-02-14",
			Sender:          `ACME "Global" Corp`,
			Recipient:       "Globex",
			Subject:         "Toner, paper and parts",
			TotalAmount:     "129.90",
			Currency:        "EUR",
			ReferenceNumber: "INV-42",
			Summary:         "Quarterly supplies",
		},
	}}

	out := string(ExportCSV(records))

	lines := strings.Split(strings.TrimPrefix(out, "\ufeff"), "\n")
	require.Len(t, lines, 2)

	// Internal double quotes are doubled, commas stay inside the quoted value.
	require.Equal(t, `"invoice","2026-02-14","ACME ""Global"" Corp","Globex",`+
		`"Toner, paper and parts","129.90","EUR","INV-42","Quarterly supplies"`, lines[1])
}

func TestExportCSVEmptyFields(t *testing.T) {
	records := []ExtractionRecord{{ID: "r1"}}

	out := string(ExportCSV(records))

	lines := strings.Split(strings.TrimPrefix(out, "\ufeff"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `"","","","","","","","",""`, lines[1])
}
