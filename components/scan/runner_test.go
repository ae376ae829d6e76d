package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
)

type testScanDB struct {
	data map[string]stcore.Blob
}

func newTestScanDB() *testScanDB {
	return &testScanDB{
		data: make(map[string]stcore.Blob),
	}
}

func (d *testScanDB) Read(key string) (stcore.Blob, error) {
	blob, ok := d.data[key]
	if !ok {
		return stcore.Blob{}, status.StatusNoData
	}

	return blob, nil
}

func (d *testScanDB) Write(key string, blob stcore.Blob) error {
	b := stcore.Blob{}

	b.Data = make([]byte, len(blob.Data))
	copy(b.Data, blob.Data)

	d.data[key] = b

	return nil
}

func (d *testScanDB) Remove(key string) error {
	delete(d.data, key)

	return nil
}

func (d *testScanDB) ForEach(fn func(key string, b stcore.Blob) error) error {
	for k, v := range d.data {
		if err := fn(k, v); err != nil {
			return err
		}
	}

	return nil
}

func (*testScanDB) Close() error {
	return nil
}

func testScanDevice(id string, devType devcore.Type) devcore.Device {
	return devcore.Device{
		ID:        id,
		Name:      "Test Device",
		Type:      devType,
		Status:    devcore.StatusReady,
		Transport: devcore.TransportNetwork,
		Address:   "192.168.1.150",
	}
}

func TestRunnerScan(t *testing.T) {
	registry := devreg.NewRegistry()
	require.True(t, registry.UpsertIfAbsent(testScanDevice("dev-1", devcore.TypeScanner)))

	history := NewHistory(newTestScanDB())
	runner := NewRunner(registry, history, RunnerParams{})

	record, err := runner.Scan(context.Background(), "dev-1")
	require.Nil(t, err)
	require.Equal(t, KindScan, record.Kind)
	require.Equal(t, "dev-1", record.DeviceID)
	require.NotEmpty(t, record.ID)

	records, err := history.List()
	require.Nil(t, err)
	require.Len(t, records, 1)
}

func TestRunnerScanOnPrinterRejected(t *testing.T) {
	registry := devreg.NewRegistry()
	require.True(t, registry.UpsertIfAbsent(testScanDevice("dev-1", devcore.TypePrinter)))

	runner := NewRunner(registry, NewHistory(newTestScanDB()), RunnerParams{})

	_, err := runner.Scan(context.Background(), "dev-1")
	require.ErrorIs(t, err, status.StatusInvalidState)
}

func TestRunnerPrintOnScannerRejected(t *testing.T) {
	registry := devreg.NewRegistry()
	require.True(t, registry.UpsertIfAbsent(testScanDevice("dev-1", devcore.TypeScanner)))

	runner := NewRunner(registry, NewHistory(newTestScanDB()), RunnerParams{})

	_, err := runner.Print(context.Background(), "dev-1")
	require.ErrorIs(t, err, status.StatusInvalidState)
}

func TestRunnerComboSupportsBoth(t *testing.T) {
	registry := devreg.NewRegistry()
	require.True(t, registry.UpsertIfAbsent(testScanDevice("dev-1", devcore.TypeCombo)))

	history := NewHistory(newTestScanDB())
	runner := NewRunner(registry, history, RunnerParams{})

	_, err := runner.Scan(context.Background(), "dev-1")
	require.Nil(t, err)

	_, err = runner.Print(context.Background(), "dev-1")
	require.Nil(t, err)

	records, err := history.List()
	require.Nil(t, err)
	require.Len(t, records, 2)
}

func TestRunnerAbsentDevice(t *testing.T) {
	runner := NewRunner(devreg.NewRegistry(), NewHistory(newTestScanDB()), RunnerParams{})

	_, err := runner.Scan(context.Background(), "unknown")
	require.ErrorIs(t, err, status.StatusNoData)
}

func TestRunnerCanceledContext(t *testing.T) {
	registry := devreg.NewRegistry()
	require.True(t, registry.UpsertIfAbsent(testScanDevice("dev-1", devcore.TypeScanner)))

	runner := NewRunner(registry, NewHistory(newTestScanDB()), RunnerParams{
		Duration: time.Second * 10,
	})

	ctx, cancelFunc := context.WithCancel(context.Background())
	cancelFunc()

	_, err := runner.Scan(ctx, "dev-1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHistoryOrdering(t *testing.T) {
	history := NewHistory(newTestScanDB())

	require.Nil(t, history.Append(Record{ID: "a", Kind: KindScan, Timestamp: 1}))
	require.Nil(t, history.Append(Record{ID: "b", Kind: KindScan, Timestamp: 3}))
	require.Nil(t, history.Append(Record{ID: "c", Kind: KindPrint, Timestamp: 2}))

	records, err := history.List()
	require.Nil(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "b", records[0].ID)
	require.Equal(t, "c", records[1].ID)
	require.Equal(t, "a", records[2].ID)
}
