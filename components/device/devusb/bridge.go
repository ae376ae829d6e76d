package devusb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
	"github.com/open-peripheral-systems/device-console/components/system/syssched"
)

// BridgeParams represents various configuration options for the hardware
// event bridge.
type BridgeParams struct {
	// PollInterval - how often to enumerate the attached devices.
	PollInterval time.Duration
}

// Bridge reflects asynchronous hardware attach/detach events into the
// registry.
//
// The host is enumerated periodically and the result is diffed against the
// previous enumeration: new ids become connect events (map + upsert), missing
// ids become disconnect events (derive id + remove).
//
// When the hardware-access capability is unavailable on the running platform
// the bridge is inert: Start logs the condition and succeeds, and the rest of
// the system remains functional.
type Bridge struct {
	host     Host
	registry *devreg.Registry
	runner   *syssched.AsyncTaskRunner

	mu        sync.Mutex
	supported bool
	known     map[string]struct{}
}

// NewBridge is a Bridge initialization.
//
// Parameters:
//   - ctx - parent context.
//   - host - hardware-access capability.
//   - registry to reflect hardware events into.
//   - params - various configuration options for the bridge.
func NewBridge(
	ctx context.Context,
	host Host,
	registry *devreg.Registry,
	params BridgeParams,
) *Bridge {
	b := &Bridge{
		host:     host,
		registry: registry,
		known:    make(map[string]struct{}),
	}

	b.runner = syssched.NewAsyncTaskRunner(ctx, b, b, syssched.AsyncTaskRunnerParams{
		UpdateInterval: params.PollInterval,
	})

	return b
}

// Start probes the capability and begins event processing.
//
// An unsupported capability is not a fatal error: the bridge stays inert and
// network devices remain fully functional.
func (b *Bridge) Start() error {
	if err := b.host.Probe(); err != nil {
		if errors.Is(err, status.StatusNotSupported) {
			core.LogWrn.Printf("usb-bridge: hardware access unavailable, bridge is inert\n")
		} else {
			core.LogWrn.Printf("usb-bridge: probe failed, bridge is inert: %v\n", err)
		}

		return nil
	}

	b.mu.Lock()
	b.supported = true
	b.mu.Unlock()

	return b.runner.Start()
}

// Stop ends event processing.
func (b *Bridge) Stop() error {
	if !b.Supported() {
		return nil
	}

	return b.runner.Stop()
}

// Supported reports whether the hardware-access capability is available.
func (b *Bridge) Supported() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.supported
}

// Run executes a single enumerate-and-diff cycle.
//
// The first cycle is the startup enumeration of previously authorized
// devices; upserts are idempotent, so devices discovered by other means are
// never clobbered.
func (b *Bridge) Run() error {
	infos, err := b.host.List()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(infos))

	for _, info := range infos {
		id := devcore.UsbID(info.VendorID, info.ProductID, info.Serial)
		seen[id] = struct{}{}

		b.mu.Lock()
		_, known := b.known[id]
		b.known[id] = struct{}{}
		b.mu.Unlock()

		if !known {
			b.handleConnect(id, info)
		}
	}

	b.mu.Lock()
	var gone []string
	for id := range b.known {
		if _, ok := seen[id]; !ok {
			gone = append(gone, id)
			delete(b.known, id)
		}
	}
	b.mu.Unlock()

	for _, id := range gone {
		b.handleDisconnect(id)
	}

	return nil
}

// HandleError handles enumeration failures.
func (*Bridge) HandleError(err error) {
	core.LogErr.Printf("usb-bridge: enumeration failed: %v\n", err)
}

func (b *Bridge) handleConnect(id string, info DeviceInfo) {
	st := devcore.StatusReady
	if info.Handle != nil && info.Handle.Opened() {
		st = devcore.StatusConnected
	}

	dev := devcore.Device{
		ID:           id,
		Name:         info.Product,
		Manufacturer: info.Manufacturer,
		Type:         devcore.InferUsbType(info.Product, info.ClassCodes),
		Status:       st,
		Transport:    devcore.TransportUSB,
		VendorID:     info.VendorID,
		ProductID:    info.ProductID,
		Serial:       info.Serial,
		Handle:       info.Handle,
	}

	if b.registry.UpsertIfAbsent(dev) {
		core.LogInf.Printf("usb-bridge: device attached: id=%s name=%s\n", id, dev.Name)
	}
}

func (b *Bridge) handleDisconnect(id string) {
	b.registry.RemoveByID(id)

	core.LogInf.Printf("usb-bridge: device detached: id=%s\n", id)
}
