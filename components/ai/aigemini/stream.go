package aigemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
)

// Chat continues the conversation with the provided prompt, streaming the
// reply as text fragments.
//
// The API streams server-sent events, one JSON response chunk per data line.
// No per-request timeout is applied: a chat reply can legitimately take a
// while, cancellation is the caller's context.
func (c *Client) Chat(
	ctx context.Context,
	history []aicore.ChatMessage,
	prompt string,
	onFragment func(fragment string),
) error {
	contents := make([]content, 0, len(history)+1)

	for _, msg := range history {
		contents = append(contents, content{
			Role:  msg.Role,
			Parts: []part{{Text: msg.Text}},
		})
	}

	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: prompt}},
	})

	buf, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse",
		c.params.BaseURL, c.params.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.params.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ai-client: stream request failed: code=%d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("ai-client: malformed stream chunk: %w", err)
		}

		if fragment := chunk.text(); fragment != "" {
			onFragment(fragment)
		}
	}

	return scanner.Err()
}
