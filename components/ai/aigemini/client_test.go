package aigemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
)

func testClientTextResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role": "model",
				"parts": []map[string]any{{
					"text": text,
				}},
			},
		}},
	}

	buf, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}

	return string(buf)
}

func newTestClient(url string) *Client {
	return NewClient(ClientParams{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "test-model",
		ImageModel: "test-image-model",
	})
}

func TestClientTroubleshootSteps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/models/test-model:generateContent", r.URL.Path)
			require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			var req generateRequest
			require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			require.NotNil(t, req.GenerationConfig)
			require.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

			steps := `[{"title":"Check paper tray","detail":"Remove jammed sheets."},` +
				`{"title":"Restart the device","detail":"Power cycle the printer."}]`

			fmt.Fprint(w, testClientTextResponse(steps))
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	steps, err := client.TroubleshootSteps(context.Background(),
		"HP LaserJet Pro", "paper jam")
	require.Nil(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "Check paper tray", steps[0].Title)
}

func TestClientAnalyzeImage(t *testing.T) {
	image := []byte{0x01, 0x02, 0x03}

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req generateRequest
			require.Nil(t, json.NewDecoder(r.Body).Decode(&req))

			parts := req.Contents[0].Parts
			require.Len(t, parts, 2)
			require.NotNil(t, parts[0].InlineData)
			require.Equal(t, "image/png", parts[0].InlineData.MIMEType)
			require.Equal(t, base64.StdEncoding.EncodeToString(image),
				parts[0].InlineData.Data)
			require.Equal(t, "describe this document", parts[1].Text)

			fmt.Fprint(w, testClientTextResponse("A scanned invoice."))
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	text, err := client.AnalyzeImage(context.Background(), image, "image/png",
		"describe this document")
	require.Nil(t, err)
	require.Equal(t, "A scanned invoice.", text)
}

func TestClientExtractFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			record := `{"documentType":"invoice","date":"2026-02-14","sender":"ACME",` +
				`"recipient":"Globex","subject":"Toner order","totalAmount":"129.90",` +
				`"currency":"EUR","referenceNumber":"INV-42","summary":"Toner invoice."}`

			fmt.Fprint(w, testClientTextResponse(record))
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.ExtractFields(context.Background(), []byte{0x01}, "image/png")
	require.Nil(t, err)
	require.Equal(t, "invoice", record.DocumentType)
	require.Equal(t, "INV-42", record.ReferenceNumber)
}

func TestClientChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/models/test-model:streamGenerateContent", r.URL.Path)
			require.Equal(t, "sse", r.URL.Query().Get("alt"))

			w.Header().Set("Content-Type", "text/event-stream")

			for _, fragment := range []string{"Hello", ", ", "printer user!"} {
				fmt.Fprintf(w, "data: %s\n\n", testClientTextResponse(fragment))
			}
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	var fragments []string

	err := client.Chat(context.Background(), nil, "hello",
		func(fragment string) {
			fragments = append(fragments, fragment)
		})
	require.Nil(t, err)
	require.Equal(t, []string{"Hello", ", ", "printer user!"}, fragments)
}

func TestClientChatHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req generateRequest
			require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 3)
			require.Equal(t, "user", req.Contents[0].Role)
			require.Equal(t, "model", req.Contents[1].Role)
			require.Equal(t, "user", req.Contents[2].Role)

			fmt.Fprintf(w, "data: %s\n\n", testClientTextResponse("ok"))
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	history := []struct {
		role string
		text string
	}{
		{"user", "my printer is offline"},
		{"model", "have you tried reconnecting it?"},
	}

	var msgs []aicore.ChatMessage
	for _, m := range history {
		msgs = append(msgs, aicore.ChatMessage{Role: m.role, Text: m.text})
	}

	require.Nil(t, client.Chat(context.Background(), msgs, "yes", func(string) {}))
}

func TestClientGenerateImage(t *testing.T) {
	image := []byte{0xde, 0xad, 0xbe, 0xef}

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/models/test-image-model:predict", r.URL.Path)

			var req predictRequest
			require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Instances, 1)
			require.Equal(t, "16:9", req.Parameters.AspectRatio)

			resp := map[string]any{
				"predictions": []map[string]any{{
					"bytesBase64Encoded": base64.StdEncoding.EncodeToString(image),
					"mimeType":           "image/png",
				}},
			}
			require.Nil(t, json.NewEncoder(w).Encode(resp))
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	got, mimeType, err := client.GenerateImage(context.Background(), "a printer", "16:9")
	require.Nil(t, err)
	require.Equal(t, image, got)
	require.Equal(t, "image/png", mimeType)
}

func TestClientRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.TroubleshootSteps(context.Background(), "HP LaserJet Pro", "jam")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "429")
}
