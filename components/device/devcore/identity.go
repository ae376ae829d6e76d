package devcore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// serialSentinel replaces a missing USB serial number before id derivation.
//
// Two units of the same model that both lack a serial number collide on the
// same id. This is a known limitation of serial-less hardware, not a bug:
// there is nothing else stable to tell them apart by.
const serialSentinel = "noserial"

// UsbID derives a stable device identifier from the USB descriptor triple.
//
// The derivation is a pure function: the same triple always yields the same
// id, so a reconnected device reconciles to its previous registry entry
// instead of duplicating it.
func UsbID(vendorID, productID uint16, serial string) string {
	if serial == "" {
		serial = serialSentinel
	}

	return hashKey(fmt.Sprintf("usb:%04x:%04x:%s", vendorID, productID, serial))
}

// NetworkID derives a stable device identifier from the network address.
//
// Port and profile are deliberately excluded: editing them never changes the
// device identity, editing the address does.
func NetworkID(address string) string {
	return hashKey("net:" + address)
}

func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
