package htconsole

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
	"github.com/open-peripheral-systems/device-console/components/core"
)

// Chat frame types.
const (
	chatTypePrompt   = "prompt"
	chatTypeFragment = "fragment"
	chatTypeDone     = "done"
	chatTypeError    = "error"
)

type chatFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// The console is a local tool, origin policy is left to a fronting
		// proxy when one is deployed.
		return true
	},
}

// handleChat relays a websocket conversation to the AI facade.
//
// The client sends prompt frames; every prompt is answered by a stream of
// fragment frames followed by a done frame. The conversation history lives
// for the duration of the connection.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.LogErr.Printf("console-chat: failed to upgrade connection: %v\n", err)

		return
	}
	defer conn.Close()

	var history []aicore.ChatMessage

	for {
		var frame chatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				core.LogWrn.Printf("console-chat: connection closed: %v\n", err)
			}

			return
		}

		if frame.Type != chatTypePrompt || frame.Text == "" {
			if err := conn.WriteJSON(chatFrame{
				Type:    chatTypeError,
				Message: "expected a non-empty prompt frame",
			}); err != nil {
				return
			}

			continue
		}

		var reply string

		err := h.params.AI.Chat(r.Context(), history, frame.Text,
			func(fragment string) {
				reply += fragment

				if err := conn.WriteJSON(chatFrame{
					Type: chatTypeFragment,
					Text: fragment,
				}); err != nil {
					core.LogWrn.Printf("console-chat: failed to write fragment: %v\n", err)
				}
			})
		if err != nil {
			// External-service failure degrades to a visible message.
			if err := conn.WriteJSON(chatFrame{
				Type:    chatTypeError,
				Message: "AI service error: " + err.Error(),
			}); err != nil {
				return
			}

			continue
		}

		history = append(history,
			aicore.ChatMessage{Role: "user", Text: frame.Text},
			aicore.ChatMessage{Role: "model", Text: reply},
		)

		if err := conn.WriteJSON(chatFrame{Type: chatTypeDone}); err != nil {
			return
		}
	}
}
