package devreg

import (
	"sort"
	"sync"

	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/status"
)

// Registry is the authoritative collection of known devices, keyed by id.
//
// All mutation happens under a single lock and ends with a fresh snapshot
// handed to every listener, so observers never see a torn or partially
// applied state.
type Registry struct {
	mu        sync.Mutex
	devices   map[string]devcore.Device
	listeners []*listenerNode
}

type listenerNode struct {
	listener Listener
}

// NewRegistry is a Registry initialization.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]devcore.Device),
	}
}

// Subscribe registers listener to be notified on every registry change.
//
// The returned function removes the subscription; calling it more than once
// is a no-op.
func (r *Registry) Subscribe(listener Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := &listenerNode{listener: listener}
	r.listeners = append(r.listeners, node)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		for i, n := range r.listeners {
			if n == node {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)

				return
			}
		}
	}
}

// UpsertIfAbsent inserts the device if no entry with the same id exists.
//
// Repeated connect notifications for the same physical device are therefore
// idempotent: the second insert is a no-op.
//
// Returns true if the device was inserted.
func (r *Registry) UpsertIfAbsent(dev devcore.Device) bool {
	r.mu.Lock()

	if _, ok := r.devices[dev.ID]; ok {
		r.mu.Unlock()

		return false
	}

	r.devices[dev.ID] = dev

	r.notifyLocked()

	return true
}

// RemoveByID deletes the device with the provided id.
//
// Removing an absent id is a no-op, not an error: disconnect notifications
// can arrive for devices that were never registered.
func (r *Registry) RemoveByID(id string) {
	r.mu.Lock()

	if _, ok := r.devices[id]; !ok {
		r.mu.Unlock()

		return
	}

	delete(r.devices, id)

	r.notifyLocked()
}

// UpdateStatus replaces the status of the device with the provided id.
//
// A no-op if the id is absent.
func (r *Registry) UpdateStatus(id string, st devcore.Status) {
	r.mu.Lock()

	dev, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()

		return
	}

	dev.Status = st
	r.devices[id] = dev

	r.notifyLocked()
}

// Replace atomically removes the entry with oldID and inserts dev.
//
// Used when an edit changes an identity-bearing field: the removal and the
// insertion are a single observable update, there is no intermediate snapshot
// where the device is absent.
func (r *Registry) Replace(oldID string, dev devcore.Device) {
	r.mu.Lock()

	delete(r.devices, oldID)
	r.devices[dev.ID] = dev

	r.notifyLocked()
}

// Get returns the device with the provided id.
//
// Returns status.StatusNoData if the id is unknown.
func (r *Registry) Get(id string) (devcore.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		return devcore.Device{}, status.StatusNoData
	}

	return dev, nil
}

// FindByAddress returns the network device with the provided address.
func (r *Registry) FindByAddress(address string) (devcore.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dev := range r.devices {
		if dev.Transport == devcore.TransportNetwork && dev.Address == address {
			return dev, true
		}
	}

	return devcore.Device{}, false
}

// Devices returns a snapshot of all known devices, ordered by name.
func (r *Registry) Devices() []devcore.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// notifyLocked hands a fresh snapshot to every listener and releases the lock.
//
// The snapshot and the listener list are captured under the lock, the
// notification itself runs outside of it, so a listener can safely call back
// into the registry.
func (r *Registry) notifyLocked() {
	devices := r.snapshotLocked()

	listeners := make([]*listenerNode, len(r.listeners))
	copy(listeners, r.listeners)

	r.mu.Unlock()

	for _, node := range listeners {
		node.listener.HandleDeviceUpdate(devices)
	}
}

func (r *Registry) snapshotLocked() []devcore.Device {
	devices := make([]devcore.Device, 0, len(r.devices))

	for _, dev := range r.devices {
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}

		return devices[i].ID < devices[j].ID
	})

	return devices
}
