package devusb

import (
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/status"
)

// DeviceInfo describes an attached USB device as reported by the host.
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Product      string
	Manufacturer string

	// ClassCodes are the USB class codes of all interfaces, used for
	// device type inference.
	ClassCodes []uint8

	// Handle is the opaque hardware handle of the device.
	Handle devcore.Handle
}

// Host is the hardware-access capability of the running platform.
//
// Availability is an environment fact: implementations report it via Probe,
// and the rest of the system stays functional when the capability is absent.
type Host interface {
	// Probe reports whether the hardware-access capability is available.
	//
	// Remarks:
	//   - Implementation should return status.StatusNotSupported when the
	//     capability is absent on the running platform.
	Probe() error

	// List enumerates the USB devices currently authorized for access.
	List() ([]DeviceInfo, error)

	// Close releases all host resources.
	Close() error
}

// UnsupportedHost is the hardware-access capability of a platform without
// USB access.
//
// Probing it always fails, which keeps the event bridge inert while the rest
// of the console stays functional.
type UnsupportedHost struct{}

// Probe reports the capability as unavailable.
func (UnsupportedHost) Probe() error {
	return status.StatusNotSupported
}

// List reports the capability as unavailable.
func (UnsupportedHost) List() ([]DeviceInfo, error) {
	return nil, status.StatusNotSupported
}

// Close is non-operational.
func (UnsupportedHost) Close() error {
	return nil
}
