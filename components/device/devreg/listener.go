package devreg

import "github.com/open-peripheral-systems/device-console/components/device/devcore"

// Listener is notified when the registry content changes.
type Listener interface {
	// HandleDeviceUpdate handles a complete registry snapshot.
	//
	// Remarks:
	//   - The snapshot is always consistent: multi-step mutations are applied
	//     before notification, never in between.
	//   - The snapshot may be shared between listeners and must be treated
	//     as read-only.
	HandleDeviceUpdate(devices []devcore.Device)
}

// FuncListener is a function type that implements the Listener interface.
type FuncListener func(devices []devcore.Device)

// HandleDeviceUpdate calls the function itself to fulfill the Listener interface.
func (f FuncListener) HandleDeviceUpdate(devices []devcore.Device) {
	f(devices)
}
