package htconsole

import (
	"net/http"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
)

// eventSendBufferSize is the per-client outbound snapshot buffer size.
//
// A slow client drops intermediate snapshots instead of blocking registry
// mutations; the final snapshot always arrives.
const eventSendBufferSize = 16

type eventFrame struct {
	Type    string           `json:"type"`
	Devices []devcore.Device `json:"devices"`
}

// handleEvents pushes registry snapshots to a websocket client.
//
// The client receives the current snapshot on connect and a fresh snapshot
// after every registry change.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.LogErr.Printf("console-events: failed to upgrade connection: %v\n", err)

		return
	}
	defer conn.Close()

	sendCh := make(chan []devcore.Device, eventSendBufferSize)

	unsubscribe := h.params.Registry.Subscribe(devreg.FuncListener(
		func(devices []devcore.Device) {
			select {
			case sendCh <- devices:
			default:
			}
		}))
	defer unsubscribe()

	// Initial snapshot, so the client doesn't wait for the first mutation.
	sendCh <- h.params.Registry.Devices()

	// Reads are discarded; a read failure is the disconnect signal.
	readDoneCh := make(chan struct{})
	go func() {
		defer close(readDoneCh)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case devices := <-sendCh:
			if err := conn.WriteJSON(eventFrame{Type: "devices", Devices: devices}); err != nil {
				return
			}

		case <-readDoneCh:
			return

		case <-r.Context().Done():
			return
		}
	}
}
