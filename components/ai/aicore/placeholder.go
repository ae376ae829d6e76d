package aicore

import (
	"context"
	"fmt"
)

// placeholderNote labels every placeholder response, so a user can always
// tell generated content from the degraded mode.
const placeholderNote = "AI features are unavailable: no API credential is configured."

// Placeholder is the degraded-mode AI client used when no API credential is
// configured.
//
// Every call resolves to a clearly labeled placeholder response. Nothing
// fails: credential absence must never crash a caller.
type Placeholder struct{}

// TroubleshootSteps returns a generic placeholder guide.
func (Placeholder) TroubleshootSteps(
	_ context.Context,
	deviceName, _ string,
) ([]Step, error) {
	return []Step{
		{
			Title:  "AI assistance unavailable",
			Detail: placeholderNote,
		},
		{
			Title:  "Check the basics",
			Detail: fmt.Sprintf("Verify that %s is powered on and reachable.", deviceName),
		},
		{
			Title:  "Consult the manual",
			Detail: "Refer to the vendor documentation for device-specific guidance.",
		},
	}, nil
}

// AnalyzeImage returns a placeholder analysis.
func (Placeholder) AnalyzeImage(
	_ context.Context,
	_ []byte,
	_, _ string,
) (string, error) {
	return "[placeholder] " + placeholderNote, nil
}

// ExtractFields returns a placeholder record.
func (Placeholder) ExtractFields(
	_ context.Context,
	_ []byte,
	_ string,
) (ExtractedRecord, error) {
	return ExtractedRecord{
		DocumentType: "unknown",
		Summary:      "[placeholder] " + placeholderNote,
	}, nil
}

// Chat streams a single placeholder fragment.
func (Placeholder) Chat(
	_ context.Context,
	_ []ChatMessage,
	_ string,
	onFragment func(fragment string),
) error {
	onFragment("[placeholder] " + placeholderNote)

	return nil
}

// GenerateImage returns a tiny placeholder image.
//
// The payload is a 1x1 transparent PNG, labeled by its MIME type as an image
// so downstream consumers can render it.
func (Placeholder) GenerateImage(
	_ context.Context,
	_, _ string,
) ([]byte, string, error) {
	return placeholderPNG(), "image/png", nil
}

func placeholderPNG() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
		0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
		0x42, 0x60, 0x82,
	}
}
