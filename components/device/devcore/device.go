package devcore

// Type is a functional device category.
type Type string

// Known device categories.
const (
	TypePrinter Type = "printer"
	TypeScanner Type = "scanner"
	TypeCombo   Type = "combo"
)

// Status is a device connection status.
type Status string

// Known device statuses.
const (
	StatusConnected Status = "connected"
	StatusReady     Status = "ready"
	StatusOffline   Status = "offline"
	StatusError     Status = "error"
)

// Transport discriminates how a device is reached.
//
// Transport is fixed at device creation and gates which operations are valid:
// only USB devices have a hardware handle and a live connection lifecycle.
type Transport string

// Known device transports.
const (
	TransportUSB     Transport = "usb"
	TransportNetwork Transport = "network"
)

// Device represents a single printer/scanner unit, regardless of transport.
type Device struct {
	// ID is a stable identifier, derived from the identity-bearing fields:
	// vendor/product/serial for USB devices, address for network devices.
	ID string `json:"id"`

	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	Type         Type      `json:"type"`
	Status       Status    `json:"status"`
	Transport    Transport `json:"transport"`

	// USB-only descriptor fields.
	VendorID  uint16 `json:"vendor_id,omitempty"`
	ProductID uint16 `json:"product_id,omitempty"`
	Serial    string `json:"serial,omitempty"`

	// Handle is the opaque hardware handle of a USB device.
	//
	// The registry entry is the only owner of the handle. It is never
	// serialized and never duplicated between entries.
	Handle Handle `json:"-"`

	// Network-only fields.
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// Handle is an opaque capability to operate on a piece of USB hardware.
//
// Only the USB transport provides a handle; network devices have none.
type Handle interface {
	// Open opens the underlying hardware device.
	Open() error

	// Opened reports whether the device is currently open.
	Opened() bool

	// Close closes the underlying hardware device.
	Close() error

	// SelectConfiguration activates the configuration with the provided value.
	SelectConfiguration(value int) error

	// ActiveConfiguration returns the currently active configuration,
	// or nil if no configuration is active.
	ActiveConfiguration() Config

	// Configurations returns all available configurations.
	Configurations() []Config
}

// Config is a single USB device configuration.
type Config interface {
	// Value returns the configuration value used for selection.
	Value() int

	// Interfaces returns the interfaces exposed by the configuration.
	Interfaces() []Iface
}

// Iface is a single USB interface within a configuration.
type Iface interface {
	// Number returns the interface number.
	Number() int

	// ClassCode returns the USB class code of the interface.
	ClassCode() uint8

	// Release releases the interface.
	Release() error
}
