package devnet

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
)

// rawPrintPort is the conventional JetDirect port of network printers.
const rawPrintPort = 9100

// addressPattern is a deliberately lax dotted-quad check: four groups of 1-3
// digits, octets not bounded to 255. The laxity is contractual, addresses
// like "999.1.1.1" are accepted.
var addressPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// Payload is a manually entered network device descriptor.
type Payload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Profile string `json:"profile"`
}

// ManagerParams represents various configuration options for the network
// device manager.
type ManagerParams struct {
	// Latency models the network round-trip of a registration; operations
	// take at least this long before resolving.
	Latency time.Duration
}

// Manager validates and registers manually entered network devices.
//
// Registered devices are persisted as JSON blobs and restored at
// construction, so manual registrations survive restarts. Network devices
// have no live connection lifecycle: status is fixed at Ready for their
// entire lifetime.
type Manager struct {
	registry *devreg.Registry
	db       stcore.DB
	params   ManagerParams
}

// NewManager is a Manager initialization.
//
// Parameters:
//   - registry to register devices into.
//   - db to persist registrations, bucket stcore.BucketNetworkDevices.
//   - params - various configuration options for the manager.
func NewManager(registry *devreg.Registry, db stcore.DB, params ManagerParams) *Manager {
	m := &Manager{
		registry: registry,
		db:       db,
		params:   params,
	}

	if err := m.restore(); err != nil {
		core.LogErr.Printf("network-manager: failed to restore devices: %v\n", err)
	}

	return m
}

// Add validates the payload and registers a new network device.
//
// Validation stops at the first offending field, in the order
// name, address, port, profile. A duplicate address fails with a
// status.ConflictError.
func (m *Manager) Add(ctx context.Context, payload Payload) (devcore.Device, error) {
	if err := m.simulateLatency(ctx); err != nil {
		return devcore.Device{}, err
	}

	if err := validate(payload); err != nil {
		return devcore.Device{}, err
	}

	if _, ok := m.registry.FindByAddress(payload.Address); ok {
		return devcore.Device{}, &status.ConflictError{
			Field: "address",
			Value: payload.Address,
		}
	}

	dev := makeDevice(payload)

	// The address was just checked unique, so the derived id is new and the
	// insert can not be a no-op.
	m.registry.UpsertIfAbsent(dev)

	if err := m.persist(dev); err != nil {
		core.LogErr.Printf("network-manager: failed to persist device: id=%s err=%v\n",
			dev.ID, err)
	}

	core.LogInf.Printf("network-manager: device added: id=%s address=%s\n",
		dev.ID, dev.Address)

	return dev, nil
}

// Edit validates the payload and updates the device with the provided id.
//
// The uniqueness check excludes the edited device itself. An address change
// changes the device identity: the old entry is atomically replaced by the
// new one.
func (m *Manager) Edit(ctx context.Context, id string, payload Payload) (devcore.Device, error) {
	if err := m.simulateLatency(ctx); err != nil {
		return devcore.Device{}, err
	}

	existing, err := m.registry.Get(id)
	if err != nil {
		return devcore.Device{}, err
	}
	if existing.Transport != devcore.TransportNetwork {
		return devcore.Device{}, status.StatusInvalidState
	}

	if err := validate(payload); err != nil {
		return devcore.Device{}, err
	}

	if other, ok := m.registry.FindByAddress(payload.Address); ok && other.ID != id {
		return devcore.Device{}, &status.ConflictError{
			Field: "address",
			Value: payload.Address,
		}
	}

	dev := makeDevice(payload)

	m.registry.Replace(id, dev)

	if dev.ID != id {
		if err := m.db.Remove(id); err != nil {
			core.LogErr.Printf("network-manager: failed to remove stale record: id=%s"+
				" err=%v\n", id, err)
		}
	}

	if err := m.persist(dev); err != nil {
		core.LogErr.Printf("network-manager: failed to persist device: id=%s err=%v\n",
			dev.ID, err)
	}

	return dev, nil
}

// Remove deletes the network device with the provided id.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.simulateLatency(ctx); err != nil {
		return err
	}

	dev, err := m.registry.Get(id)
	if err != nil {
		return err
	}
	if dev.Transport != devcore.TransportNetwork {
		return status.StatusInvalidState
	}

	m.registry.RemoveByID(id)

	if err := m.db.Remove(id); err != nil {
		core.LogErr.Printf("network-manager: failed to remove record: id=%s err=%v\n",
			id, err)
	}

	return nil
}

func (m *Manager) simulateLatency(ctx context.Context) error {
	if m.params.Latency <= 0 {
		return nil
	}

	timer := time.NewTimer(m.params.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) restore() error {
	return m.db.ForEach(func(key string, b stcore.Blob) error {
		var record storageRecord

		if err := json.Unmarshal(b.Data, &record); err != nil {
			core.LogErr.Printf("network-manager: failed to parse record: key=%s err=%v\n",
				key, err)

			return nil
		}

		dev := makeDevice(record.Payload)

		if m.registry.UpsertIfAbsent(dev) {
			core.LogInf.Printf("network-manager: device restored: id=%s address=%s\n",
				dev.ID, dev.Address)
		}

		return nil
	})
}

func (m *Manager) persist(dev devcore.Device) error {
	record := storageRecord{
		Payload: Payload{
			Name:    dev.Name,
			Address: dev.Address,
			Port:    dev.Port,
			Profile: dev.Profile,
		},
		Timestamp: time.Now().Unix(),
	}

	buf, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return m.db.Write(dev.ID, stcore.Blob{Data: buf})
}

type storageRecord struct {
	Payload   Payload `json:"payload"`
	Timestamp int64   `json:"ts"`
}

func makeDevice(payload Payload) devcore.Device {
	return devcore.Device{
		ID:        devcore.NetworkID(payload.Address),
		Name:      payload.Name,
		Type:      InferPortType(payload.Port),
		Status:    devcore.StatusReady,
		Transport: devcore.TransportNetwork,
		Address:   payload.Address,
		Port:      payload.Port,
		Profile:   payload.Profile,
	}
}

// InferPortType guesses the functional category of a network device from its
// port.
//
// This heuristic is independent of the USB name/class heuristic; the two are
// deliberately kept separate, unifying them would change observable
// classification.
func InferPortType(port int) devcore.Type {
	if port == rawPrintPort {
		return devcore.TypePrinter
	}

	return devcore.TypeScanner
}

func validate(payload Payload) error {
	if payload.Name == "" {
		return &status.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if !addressPattern.MatchString(payload.Address) {
		return &status.ValidationError{
			Field:  "address",
			Reason: "must be a dotted-quad IPv4 address",
		}
	}

	if payload.Port < 1 || payload.Port > 65535 {
		return &status.ValidationError{
			Field:  "port",
			Reason: "must be an integer in [1, 65535]",
		}
	}

	if payload.Profile == "" {
		return &status.ValidationError{Field: "profile", Reason: "must not be empty"}
	}

	return nil
}
