package devusb

import (
	"fmt"
	"sync"

	"github.com/google/gousb"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
)

// usbClassImage is the USB base class code for still-image devices (scanners).
const usbClassImage = gousb.Class(0x06)

// GousbHost enumerates printer/scanner peripherals through libusb.
//
// References:
//   - https://github.com/google/gousb
type GousbHost struct {
	ctx *gousb.Context
}

// NewGousbHost is a GousbHost initialization.
func NewGousbHost() *GousbHost {
	return &GousbHost{
		ctx: gousb.NewContext(),
	}
}

// Probe reports whether libusb enumeration works on the running platform.
func (h *GousbHost) Probe() error {
	devices, err := h.ctx.OpenDevices(func(*gousb.DeviceDesc) bool {
		return false
	})
	if err != nil {
		return err
	}

	for _, dev := range devices {
		_ = dev.Close()
	}

	return nil
}

// List enumerates attached printer/scanner peripherals.
//
// Devices that expose neither a printer-class nor an image-class interface
// are skipped.
func (h *GousbHost) List() ([]DeviceInfo, error) {
	var infos []DeviceInfo

	devices, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return len(classCodes(desc)) > 0
	})
	for _, dev := range devices {
		info, infoErr := h.describe(dev)

		// The descriptor strings are read while the enumeration handle is
		// open; afterwards the device is reopened on demand by the handle.
		if closeErr := dev.Close(); closeErr != nil {
			core.LogWrn.Printf("usb-host: failed to close enumeration handle: %v\n",
				closeErr)
		}

		if infoErr != nil {
			core.LogWrn.Printf("usb-host: failed to describe device: %v\n", infoErr)

			continue
		}

		infos = append(infos, info)
	}
	if err != nil && len(infos) == 0 {
		return nil, err
	}

	return infos, nil
}

// Close releases the libusb context.
func (h *GousbHost) Close() error {
	return h.ctx.Close()
}

func (h *GousbHost) describe(dev *gousb.Device) (DeviceInfo, error) {
	desc := dev.Desc

	serial, err := dev.SerialNumber()
	if err != nil {
		serial = ""
	}

	product, err := dev.Product()
	if err != nil {
		product = fmt.Sprintf("USB Device %04x:%04x", uint16(desc.Vendor), uint16(desc.Product))
	}

	manufacturer, err := dev.Manufacturer()
	if err != nil {
		manufacturer = ""
	}

	codes := classCodes(desc)

	return DeviceInfo{
		VendorID:     uint16(desc.Vendor),
		ProductID:    uint16(desc.Product),
		Serial:       serial,
		Product:      product,
		Manufacturer: manufacturer,
		ClassCodes:   codes,
		Handle:       newGousbHandle(h.ctx, desc),
	}, nil
}

func classCodes(desc *gousb.DeviceDesc) []uint8 {
	var codes []uint8

	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter || alt.Class == usbClassImage {
					codes = append(codes, uint8(alt.Class))
				}
			}
		}
	}

	return codes
}

// gousbHandle adapts a libusb device to the devcore.Handle capability.
//
// The device is opened on demand and the handle tracks the session state,
// since enumeration handles are closed right after descriptor reads.
type gousbHandle struct {
	ctx  *gousb.Context
	desc *gousb.DeviceDesc

	mu        sync.Mutex
	dev       *gousb.Device
	activeCfg *gousbConfig
}

func newGousbHandle(ctx *gousb.Context, desc *gousb.DeviceDesc) *gousbHandle {
	return &gousbHandle{
		ctx:  ctx,
		desc: desc,
	}
}

// Open opens the underlying hardware device.
func (g *gousbHandle) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dev != nil {
		return nil
	}

	dev, err := g.ctx.OpenDeviceWithVIDPID(g.desc.Vendor, g.desc.Product)
	if err != nil {
		return err
	}
	if dev == nil {
		return fmt.Errorf("device %04x:%04x not found",
			uint16(g.desc.Vendor), uint16(g.desc.Product))
	}

	g.dev = dev

	return nil
}

// Opened reports whether the device is currently open.
func (g *gousbHandle) Opened() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.dev != nil
}

// Close closes the underlying hardware device.
func (g *gousbHandle) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dev == nil {
		return nil
	}

	err := g.dev.Close()

	g.dev = nil
	g.activeCfg = nil

	return err
}

// SelectConfiguration activates the configuration with the provided value.
func (g *gousbHandle) SelectConfiguration(value int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dev == nil {
		return fmt.Errorf("device %04x:%04x is not open",
			uint16(g.desc.Vendor), uint16(g.desc.Product))
	}

	cfg, err := g.dev.Config(value)
	if err != nil {
		return err
	}

	g.activeCfg = &gousbConfig{cfg: cfg, desc: cfg.Desc}

	return nil
}

// ActiveConfiguration returns the currently active configuration.
func (g *gousbHandle) ActiveConfiguration() devcore.Config {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.activeCfg == nil {
		return nil
	}

	return g.activeCfg
}

// Configurations returns all available configurations.
func (g *gousbHandle) Configurations() []devcore.Config {
	var configs []devcore.Config

	for _, cfg := range g.desc.Configs {
		configs = append(configs, &gousbConfig{desc: cfg})
	}

	return configs
}

type gousbConfig struct {
	// cfg is non-nil only for the active configuration.
	cfg  *gousb.Config
	desc gousb.ConfigDesc
}

// Value returns the configuration value used for selection.
func (c *gousbConfig) Value() int {
	return c.desc.Number
}

// Interfaces returns the interfaces exposed by the configuration.
func (c *gousbConfig) Interfaces() []devcore.Iface {
	var ifaces []devcore.Iface

	for _, iface := range c.desc.Interfaces {
		if len(iface.AltSettings) == 0 {
			continue
		}

		ifaces = append(ifaces, &gousbIface{desc: iface.AltSettings[0]})
	}

	return ifaces
}

type gousbIface struct {
	desc gousb.InterfaceSetting
}

// Number returns the interface number.
func (i *gousbIface) Number() int {
	return i.desc.Number
}

// ClassCode returns the USB class code of the interface.
func (i *gousbIface) ClassCode() uint8 {
	return uint8(i.desc.Class)
}

// Release is non-operational.
//
// Interfaces are never claimed: no data is transferred to the device, and
// skipping the claim avoids failures on access-protected interfaces.
func (i *gousbIface) Release() error {
	return nil
}
