package aigemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
)

// DefaultBaseURL is the production endpoint of the generative language API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ClientParams represents various configuration options for the API client.
type ClientParams struct {
	// BaseURL - API endpoint, DefaultBaseURL if empty.
	BaseURL string

	// APIKey - access credential, passed in the x-goog-api-key header.
	APIKey string

	// Model - text/vision model identifier.
	Model string

	// ImageModel - image generation model identifier.
	ImageModel string

	// Timeout - per-request timeout for the request/response calls.
	Timeout time.Duration
}

// Client talks to a Gemini-style generative language REST API.
//
// The API is an opaque external collaborator: the client knows the request
// and response shapes and nothing about the backend.
type Client struct {
	client http.Client
	params ClientParams
}

// NewClient is a Client initialization.
func NewClient(params ClientParams) *Client {
	if params.BaseURL == "" {
		params.BaseURL = DefaultBaseURL
	}

	params.BaseURL = strings.TrimSuffix(params.BaseURL, "/")

	return &Client{
		params: params,
	}
}

// TroubleshootSteps generates an ordered troubleshooting guide.
func (c *Client) TroubleshootSteps(
	ctx context.Context,
	deviceName, issue string,
) ([]aicore.Step, error) {
	prompt := fmt.Sprintf(
		"You are a printer and scanner support specialist. Device: %q. Reported issue: %q."+
			" Produce an ordered list of troubleshooting steps as a JSON array of objects"+
			" with fields \"title\" and \"detail\".",
		deviceName, issue)

	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var steps []aicore.Step
	if err := json.Unmarshal([]byte(text), &steps); err != nil {
		return nil, fmt.Errorf("ai-client: malformed steps payload: %w", err)
	}

	return steps, nil
}

// AnalyzeImage answers a free-text prompt about a document image.
func (c *Client) AnalyzeImage(
	ctx context.Context,
	image []byte,
	mimeType, prompt string,
) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
				{Text: prompt},
			},
		}},
	}

	return c.generate(ctx, req)
}

// ExtractFields extracts the fixed-schema record from a document image.
func (c *Client) ExtractFields(
	ctx context.Context,
	image []byte,
	mimeType string,
) (aicore.ExtractedRecord, error) {
	prompt := "Extract the following fields from the document as a JSON object:" +
		" documentType, date, sender, recipient, subject, totalAmount, currency," +
		" referenceNumber, summary. Use an empty string for fields that can not" +
		" be determined."

	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return aicore.ExtractedRecord{}, err
	}

	var record aicore.ExtractedRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return aicore.ExtractedRecord{}, fmt.Errorf("ai-client: malformed record payload: %w", err)
	}

	return record, nil
}

// GenerateImage renders an image for the prompt.
func (c *Client) GenerateImage(
	ctx context.Context,
	prompt, aspectRatio string,
) ([]byte, string, error) {
	req := predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount: 1,
			AspectRatio: aspectRatio,
		},
	}

	url := fmt.Sprintf("%s/models/%s:predict", c.params.BaseURL, c.params.ImageModel)

	body, err := c.post(ctx, url, req)
	if err != nil {
		return nil, "", err
	}

	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("ai-client: malformed predict response: %w", err)
	}
	if len(resp.Predictions) == 0 {
		return nil, "", fmt.Errorf("ai-client: no image in response")
	}

	prediction := resp.Predictions[0]

	image, err := base64.StdEncoding.DecodeString(prediction.BytesBase64Encoded)
	if err != nil {
		return nil, "", fmt.Errorf("ai-client: malformed image payload: %w", err)
	}

	mimeType := prediction.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return image, mimeType, nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.params.BaseURL, c.params.Model)

	body, err := c.post(ctx, url, req)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ai-client: malformed response: %w", err)
	}

	text := resp.text()
	if text == "" {
		return "", fmt.Errorf("ai-client: empty response")
	}

	return text, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.params.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai-client: request failed: code=%d body=%s",
			resp.StatusCode, truncate(string(body), 256))
	}

	return body, nil
}

func (c *Client) timeout() time.Duration {
	if c.params.Timeout > 0 {
		return c.params.Timeout
	}

	return time.Minute
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r *generateResponse) text() string {
	var sb strings.Builder

	for _, candidate := range r.Candidates {
		for _, p := range candidate.Content.Parts {
			sb.WriteString(p.Text)
		}

		break
	}

	return sb.String()
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MIMEType           string `json:"mimeType"`
	} `json:"predictions"`
}
