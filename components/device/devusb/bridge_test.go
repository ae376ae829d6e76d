package devusb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
)

type testBridgeUnsupportedHost struct{}

func (*testBridgeUnsupportedHost) Probe() error {
	return status.StatusNotSupported
}

func (*testBridgeUnsupportedHost) List() ([]DeviceInfo, error) {
	return nil, status.StatusNotSupported
}

func (*testBridgeUnsupportedHost) Close() error {
	return nil
}

func testBridgeDesc(serial string) SimDeviceDesc {
	return SimDeviceDesc{
		VendorID:     0x03f0,
		ProductID:    0x112a,
		Serial:       serial,
		Product:      "HP LaserJet Pro",
		Manufacturer: "HP",
		ClassCodes:   []uint8{7},
	}
}

func TestBridgeConnectNotificationIdempotent(t *testing.T) {
	host := NewSimHost([]SimDeviceDesc{testBridgeDesc("CN12345")})
	registry := devreg.NewRegistry()

	bridge := NewBridge(context.Background(), host, registry, BridgeParams{
		PollInterval: time.Hour,
	})

	require.Nil(t, bridge.Run())
	require.Nil(t, bridge.Run())

	devices := registry.Devices()
	require.Len(t, devices, 1)
	require.Equal(t, devcore.TransportUSB, devices[0].Transport)
	require.Equal(t, devcore.TypePrinter, devices[0].Type)
	require.Equal(t, devcore.StatusReady, devices[0].Status)
	require.NotNil(t, devices[0].Handle)
}

func TestBridgeDisconnectNotification(t *testing.T) {
	host := NewSimHost([]SimDeviceDesc{testBridgeDesc("CN12345")})
	registry := devreg.NewRegistry()

	bridge := NewBridge(context.Background(), host, registry, BridgeParams{
		PollInterval: time.Hour,
	})

	require.Nil(t, bridge.Run())
	require.Len(t, registry.Devices(), 1)

	host.Detach(0x03f0, 0x112a, "CN12345")

	require.Nil(t, bridge.Run())
	require.Empty(t, registry.Devices())

	// A disconnect notification for an absent device is a no-op.
	require.Nil(t, bridge.Run())
	require.Empty(t, registry.Devices())
}

func TestBridgeStartupEnumerationNoClobber(t *testing.T) {
	host := NewSimHost([]SimDeviceDesc{testBridgeDesc("CN12345")})
	registry := devreg.NewRegistry()

	// The device is already known with a live status before the bridge starts.
	id := devcore.UsbID(0x03f0, 0x112a, "CN12345")
	require.True(t, registry.UpsertIfAbsent(devcore.Device{
		ID:        id,
		Name:      "HP LaserJet Pro",
		Type:      devcore.TypePrinter,
		Status:    devcore.StatusConnected,
		Transport: devcore.TransportUSB,
	}))

	bridge := NewBridge(context.Background(), host, registry, BridgeParams{
		PollInterval: time.Hour,
	})
	require.Nil(t, bridge.Run())

	dev, err := registry.Get(id)
	require.Nil(t, err)
	require.Equal(t, devcore.StatusConnected, dev.Status)
}

func TestBridgeUnsupportedHostInert(t *testing.T) {
	registry := devreg.NewRegistry()

	bridge := NewBridge(context.Background(), &testBridgeUnsupportedHost{}, registry,
		BridgeParams{PollInterval: time.Hour})

	// Unavailable hardware access is not a fatal error.
	require.Nil(t, bridge.Start())
	require.False(t, bridge.Supported())
	require.Nil(t, bridge.Stop())

	require.Empty(t, registry.Devices())
}

func TestBridgeAttachAfterStart(t *testing.T) {
	host := NewSimHost(nil)
	registry := devreg.NewRegistry()

	bridge := NewBridge(context.Background(), host, registry, BridgeParams{
		PollInterval: time.Hour,
	})

	require.Nil(t, bridge.Run())
	require.Empty(t, registry.Devices())

	host.Attach(testBridgeDesc("CN99999"))

	require.Nil(t, bridge.Run())
	require.Len(t, registry.Devices(), 1)
}
