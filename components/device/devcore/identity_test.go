package devcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsbIDDeterministic(t *testing.T) {
	id1 := UsbID(0x03f0, 0x112a, "CN12345")
	id2 := UsbID(0x03f0, 0x112a, "CN12345")
	require.Equal(t, id1, id2)

	require.NotEqual(t, id1, UsbID(0x03f0, 0x112a, "CN99999"))
	require.NotEqual(t, id1, UsbID(0x03f0, 0x112b, "CN12345"))
}

func TestUsbIDMissingSerialSentinel(t *testing.T) {
	// Two serial-less units of the same model collide by design.
	require.Equal(t, UsbID(0x04b8, 0x0202, ""), UsbID(0x04b8, 0x0202, ""))

	// The sentinel behaves like any other serial value.
	require.Equal(t, UsbID(0x04b8, 0x0202, ""), UsbID(0x04b8, 0x0202, "noserial"))
}

func TestNetworkIDAddressOnly(t *testing.T) {
	id1 := NetworkID("192.168.1.150")
	id2 := NetworkID("192.168.1.150")
	require.Equal(t, id1, id2)

	require.NotEqual(t, id1, NetworkID("192.168.1.151"))
}

func TestInferUsbTypeKeywords(t *testing.T) {
	tests := []struct {
		name       string
		product    string
		classCodes []uint8
		want       Type
	}{
		{"printer keyword", "HP LaserJet Pro M404", nil, TypePrinter},
		{"scanner keyword", "Epson ScanJet 3000", nil, TypeScanner},
		{"combo keyword", "Brother MFP-L2710", nil, TypeCombo},
		{"both keywords", "PrintScan Station", nil, TypeCombo},
		{"case insensitive", "CANON PIXMA PRINTER", nil, TypePrinter},
		{"printer class fallback", "Generic Device", []uint8{7}, TypePrinter},
		{"unknown defaults to scanner", "Mystery Box", []uint8{3, 9}, TypeScanner},
		{"no hints at all", "", nil, TypeScanner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, InferUsbType(tt.product, tt.classCodes))
		})
	}
}
