package devusb

import (
	"fmt"
	"sync"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
)

// Controller drives the open/select-configuration/close lifecycle of USB
// devices and updates their registry status accordingly.
//
// Operations on the same device id are serialized: a disconnect notification
// can not race a connect action into a stale status. Network devices are not
// governed by the controller, connect/disconnect on them are logged no-ops.
//
// Interface claiming is deliberately never performed. The console transfers
// no data to the device, and an unclaimed interface can not fail on
// access-protected hardware. Adding real I/O requires claim/release around
// the transfer path.
type Controller struct {
	registry *devreg.Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController is a Controller initialization.
func NewController(registry *devreg.Registry) *Controller {
	return &Controller{
		registry: registry,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Connect opens the device and selects its first configuration when none is
// active.
//
// Any failure during the sequence sets the device status to Error and is
// returned as a status.ConnectionError carrying the underlying cause.
func (c *Controller) Connect(id string) error {
	lock := c.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	dev, err := c.registry.Get(id)
	if err != nil {
		return err
	}

	if dev.Transport == devcore.TransportNetwork {
		core.LogInf.Printf("connection-controller: connect is a no-op for network device:"+
			" id=%s\n", id)

		return nil
	}

	if dev.Handle == nil {
		return status.StatusInvalidState
	}

	if err := c.openSequence(dev.Handle); err != nil {
		c.registry.UpdateStatus(id, devcore.StatusError)

		return &status.ConnectionError{DeviceID: id, Cause: err}
	}

	c.registry.UpdateStatus(id, devcore.StatusConnected)

	return nil
}

// Disconnect releases the first interface best-effort and closes the device.
//
// Any failure during the sequence sets the device status to Error and is
// returned as a status.DisconnectionError carrying the underlying cause.
func (c *Controller) Disconnect(id string) error {
	lock := c.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	dev, err := c.registry.Get(id)
	if err != nil {
		return err
	}

	if dev.Transport == devcore.TransportNetwork {
		core.LogInf.Printf("connection-controller: disconnect is a no-op for network device:"+
			" id=%s\n", id)

		return nil
	}

	if dev.Handle == nil || !dev.Handle.Opened() {
		return status.StatusInvalidState
	}

	if err := c.closeSequence(id, dev.Handle); err != nil {
		c.registry.UpdateStatus(id, devcore.StatusError)

		return &status.DisconnectionError{DeviceID: id, Cause: err}
	}

	c.registry.UpdateStatus(id, devcore.StatusReady)

	return nil
}

func (c *Controller) openSequence(handle devcore.Handle) error {
	if err := handle.Open(); err != nil {
		return fmt.Errorf("open: %w", err)
	}

	if handle.ActiveConfiguration() == nil {
		configs := handle.Configurations()
		if len(configs) > 0 {
			if err := handle.SelectConfiguration(configs[0].Value()); err != nil {
				return fmt.Errorf("select configuration: %w", err)
			}
		}
	}

	return nil
}

func (c *Controller) closeSequence(id string, handle devcore.Handle) error {
	if cfg := handle.ActiveConfiguration(); cfg != nil {
		if ifaces := cfg.Interfaces(); len(ifaces) > 0 {
			// Best-effort cleanup: a failed release is logged, not reported.
			if err := ifaces[0].Release(); err != nil {
				core.LogWrn.Printf("connection-controller: failed to release interface:"+
					" id=%s err=%v\n", id, err)
			}
		}
	}

	if err := handle.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

func (c *Controller) idLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}

	return lock
}
