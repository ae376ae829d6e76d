package aicore

import "context"

// Step is a single troubleshooting instruction.
type Step struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ExtractedRecord is the fixed-schema result of structured document
// extraction. Fields the model can not determine are left empty.
type ExtractedRecord struct {
	DocumentType    string `json:"documentType"`
	Date            string `json:"date"`
	Sender          string `json:"sender"`
	Recipient       string `json:"recipient"`
	Subject         string `json:"subject"`
	TotalAmount     string `json:"totalAmount"`
	Currency        string `json:"currency"`
	ReferenceNumber string `json:"referenceNumber"`
	Summary         string `json:"summary"`
}

// ChatMessage is a single message of a conversation history.
type ChatMessage struct {
	// Role is either "user" or "model".
	Role string `json:"role"`

	Text string `json:"text"`
}

// Client is the generative-AI facade of the console.
//
// All calls are request/response except Chat, which streams the reply as a
// sequence of text fragments.
type Client interface {
	// TroubleshootSteps generates an ordered troubleshooting guide for the
	// provided device and issue description.
	TroubleshootSteps(ctx context.Context, deviceName, issue string) ([]Step, error)

	// AnalyzeImage answers a free-text prompt about a document image.
	AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error)

	// ExtractFields extracts the fixed-schema record from a document image.
	ExtractFields(ctx context.Context, image []byte, mimeType string) (ExtractedRecord, error)

	// Chat continues the conversation with the provided prompt, invoking
	// onFragment for every received text fragment in order.
	Chat(ctx context.Context, history []ChatMessage, prompt string,
		onFragment func(fragment string)) error

	// GenerateImage renders an image for the prompt.
	//
	// Returns the image bytes and their MIME type.
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error)
}
