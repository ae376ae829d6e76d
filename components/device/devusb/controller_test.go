package devusb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
)

type testControllerIface struct {
	released   int
	releaseErr error
}

func (*testControllerIface) Number() int {
	return 0
}

func (*testControllerIface) ClassCode() uint8 {
	return 7
}

func (i *testControllerIface) Release() error {
	i.released++

	return i.releaseErr
}

type testControllerConfig struct {
	value  int
	ifaces []devcore.Iface
}

func (c *testControllerConfig) Value() int {
	return c.value
}

func (c *testControllerConfig) Interfaces() []devcore.Iface {
	return c.ifaces
}

type testControllerHandle struct {
	opened    bool
	activeCfg devcore.Config
	configs   []devcore.Config

	openErr   error
	closeErr  error
	selectErr error

	openCount   int
	closeCount  int
	selectCount int
}

func (h *testControllerHandle) Open() error {
	h.openCount++

	if h.openErr != nil {
		return h.openErr
	}

	h.opened = true

	return nil
}

func (h *testControllerHandle) Opened() bool {
	return h.opened
}

func (h *testControllerHandle) Close() error {
	h.closeCount++

	if h.closeErr != nil {
		return h.closeErr
	}

	h.opened = false
	h.activeCfg = nil

	return nil
}

func (h *testControllerHandle) SelectConfiguration(value int) error {
	h.selectCount++

	if h.selectErr != nil {
		return h.selectErr
	}

	for _, cfg := range h.configs {
		if cfg.Value() == value {
			h.activeCfg = cfg

			return nil
		}
	}

	return status.StatusNoData
}

func (h *testControllerHandle) ActiveConfiguration() devcore.Config {
	return h.activeCfg
}

func (h *testControllerHandle) Configurations() []devcore.Config {
	return h.configs
}

func testControllerUsbDevice(handle devcore.Handle) devcore.Device {
	return devcore.Device{
		ID:        devcore.UsbID(0x03f0, 0x112a, "CN12345"),
		Name:      "HP LaserJet Pro",
		Type:      devcore.TypePrinter,
		Status:    devcore.StatusReady,
		Transport: devcore.TransportUSB,
		Handle:    handle,
	}
}

func TestControllerConnect(t *testing.T) {
	iface := &testControllerIface{}
	handle := &testControllerHandle{
		configs: []devcore.Config{
			&testControllerConfig{value: 1, ifaces: []devcore.Iface{iface}},
		},
	}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.Nil(t, controller.Connect(dev.ID))
	require.Equal(t, 1, handle.openCount)
	require.Equal(t, 1, handle.selectCount)

	got, err := registry.Get(dev.ID)
	require.Nil(t, err)
	require.Equal(t, devcore.StatusConnected, got.Status)

	// An already active configuration is not reselected.
	require.Nil(t, controller.Disconnect(dev.ID))
	require.Nil(t, handle.SelectConfiguration(1))
	handle.opened = true

	require.Nil(t, controller.Connect(dev.ID))
	require.Equal(t, 2, handle.selectCount)
}

func TestControllerConnectOpenFailure(t *testing.T) {
	openErr := errors.New("device is busy")
	handle := &testControllerHandle{openErr: openErr}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	err := controller.Connect(dev.ID)
	require.NotNil(t, err)

	var connErr *status.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.ErrorIs(t, err, openErr)

	// The entry survives the failure with status Error.
	devices := registry.Devices()
	require.Len(t, devices, 1)
	require.Equal(t, devcore.StatusError, devices[0].Status)
}

func TestControllerConnectAbsentDevice(t *testing.T) {
	controller := NewController(devreg.NewRegistry())

	require.ErrorIs(t, controller.Connect("unknown"), status.StatusNoData)
}

func TestControllerConnectNoHandle(t *testing.T) {
	registry := devreg.NewRegistry()

	dev := testControllerUsbDevice(nil)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.ErrorIs(t, controller.Connect(dev.ID), status.StatusInvalidState)
}

func TestControllerDisconnect(t *testing.T) {
	iface := &testControllerIface{}
	handle := &testControllerHandle{
		configs: []devcore.Config{
			&testControllerConfig{value: 1, ifaces: []devcore.Iface{iface}},
		},
	}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.Nil(t, controller.Connect(dev.ID))
	require.Nil(t, controller.Disconnect(dev.ID))

	require.Equal(t, 1, handle.closeCount)
	require.Equal(t, 1, iface.released)

	got, err := registry.Get(dev.ID)
	require.Nil(t, err)
	require.Equal(t, devcore.StatusReady, got.Status)
}

func TestControllerDisconnectNotOpen(t *testing.T) {
	handle := &testControllerHandle{}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.ErrorIs(t, controller.Disconnect(dev.ID), status.StatusInvalidState)
}

func TestControllerDisconnectCloseFailure(t *testing.T) {
	closeErr := errors.New("transport failure")
	handle := &testControllerHandle{closeErr: closeErr}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.Nil(t, controller.Connect(dev.ID))

	err := controller.Disconnect(dev.ID)
	require.NotNil(t, err)

	var disconnErr *status.DisconnectionError
	require.ErrorAs(t, err, &disconnErr)

	got, getErr := registry.Get(dev.ID)
	require.Nil(t, getErr)
	require.Equal(t, devcore.StatusError, got.Status)
}

func TestControllerDisconnectReleaseFailureBestEffort(t *testing.T) {
	iface := &testControllerIface{releaseErr: errors.New("release denied")}
	handle := &testControllerHandle{
		configs: []devcore.Config{
			&testControllerConfig{value: 1, ifaces: []devcore.Iface{iface}},
		},
	}

	registry := devreg.NewRegistry()
	dev := testControllerUsbDevice(handle)
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.Nil(t, controller.Connect(dev.ID))

	// A failed interface release is logged and the disconnect proceeds.
	require.Nil(t, controller.Disconnect(dev.ID))

	got, err := registry.Get(dev.ID)
	require.Nil(t, err)
	require.Equal(t, devcore.StatusReady, got.Status)
}

func TestControllerNetworkDeviceNoop(t *testing.T) {
	registry := devreg.NewRegistry()

	dev := devcore.Device{
		ID:        devcore.NetworkID("192.168.1.150"),
		Name:      "Office Printer",
		Type:      devcore.TypePrinter,
		Status:    devcore.StatusReady,
		Transport: devcore.TransportNetwork,
		Address:   "192.168.1.150",
		Port:      9100,
	}
	require.True(t, registry.UpsertIfAbsent(dev))

	controller := NewController(registry)

	require.Nil(t, controller.Connect(dev.ID))
	require.Nil(t, controller.Disconnect(dev.ID))

	got, err := registry.Get(dev.ID)
	require.Nil(t, err)
	require.Equal(t, devcore.StatusReady, got.Status)
}
