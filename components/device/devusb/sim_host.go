package devusb

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/status"
)

// SimDeviceDesc describes a single simulated USB device.
type SimDeviceDesc struct {
	VendorID     uint16  `json:"vendor_id"`
	ProductID    uint16  `json:"product_id"`
	Serial       string  `json:"serial"`
	Product      string  `json:"product"`
	Manufacturer string  `json:"manufacturer"`
	ClassCodes   []uint8 `json:"class_codes"`
}

// SimHost is a hardware-access capability backed by a static device list.
//
// It is used on platforms without libusb and in development environments:
// the attached device set is read from a JSON file, and the handles keep all
// session state in memory.
type SimHost struct {
	mu      sync.Mutex
	descs   []SimDeviceDesc
	handles map[string]*simHandle
}

// NewSimHostFromFile reads the simulated device list from a JSON file.
func NewSimHostFromFile(path string) (*SimHost, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var descs []SimDeviceDesc
	if err := json.Unmarshal(buf, &descs); err != nil {
		return nil, err
	}

	return NewSimHost(descs), nil
}

// NewSimHost is a SimHost initialization.
func NewSimHost(descs []SimDeviceDesc) *SimHost {
	return &SimHost{
		descs:   descs,
		handles: make(map[string]*simHandle),
	}
}

// Probe always reports the capability as available.
func (*SimHost) Probe() error {
	return nil
}

// List enumerates the simulated devices.
//
// Handles are stable between calls: repeated enumeration of the same device
// yields the same handle, mirroring real hardware.
func (h *SimHost) List() ([]DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var infos []DeviceInfo

	for _, desc := range h.descs {
		key := devcore.UsbID(desc.VendorID, desc.ProductID, desc.Serial)

		handle, ok := h.handles[key]
		if !ok {
			handle = newSimHandle(desc)
			h.handles[key] = handle
		}

		infos = append(infos, DeviceInfo{
			VendorID:     desc.VendorID,
			ProductID:    desc.ProductID,
			Serial:       desc.Serial,
			Product:      desc.Product,
			Manufacturer: desc.Manufacturer,
			ClassCodes:   desc.ClassCodes,
			Handle:       handle,
		})
	}

	return infos, nil
}

// Attach adds a device to the simulated bus.
func (h *SimHost) Attach(desc SimDeviceDesc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.descs = append(h.descs, desc)
}

// Detach removes a device from the simulated bus.
func (h *SimHost) Detach(vendorID, productID uint16, serial string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := devcore.UsbID(vendorID, productID, serial)

	descs := h.descs[:0]
	for _, desc := range h.descs {
		if devcore.UsbID(desc.VendorID, desc.ProductID, desc.Serial) != key {
			descs = append(descs, desc)
		}
	}

	h.descs = descs
	delete(h.handles, key)
}

// Close is non-operational.
func (*SimHost) Close() error {
	return nil
}

// simHandle is an in-memory devcore.Handle for a simulated device.
type simHandle struct {
	desc SimDeviceDesc

	mu        sync.Mutex
	opened    bool
	activeCfg devcore.Config
	configs   []devcore.Config
}

func newSimHandle(desc SimDeviceDesc) *simHandle {
	var ifaces []devcore.Iface
	for num, code := range desc.ClassCodes {
		ifaces = append(ifaces, &simIface{number: num, classCode: code})
	}

	return &simHandle{
		desc:    desc,
		configs: []devcore.Config{&simConfig{value: 1, ifaces: ifaces}},
	}
}

func (s *simHandle) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opened = true

	return nil
}

func (s *simHandle) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opened
}

func (s *simHandle) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opened = false
	s.activeCfg = nil

	return nil
}

func (s *simHandle) SelectConfiguration(value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range s.configs {
		if cfg.Value() == value {
			s.activeCfg = cfg

			return nil
		}
	}

	return status.StatusNoData
}

func (s *simHandle) ActiveConfiguration() devcore.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeCfg
}

func (s *simHandle) Configurations() []devcore.Config {
	return s.configs
}

type simConfig struct {
	value  int
	ifaces []devcore.Iface
}

func (c *simConfig) Value() int {
	return c.value
}

func (c *simConfig) Interfaces() []devcore.Iface {
	return c.ifaces
}

type simIface struct {
	number    int
	classCode uint8
}

func (i *simIface) Number() int {
	return i.number
}

func (i *simIface) ClassCode() uint8 {
	return i.classCode
}

func (i *simIface) Release() error {
	return nil
}
