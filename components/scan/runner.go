package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/status"
)

// Kind is a job kind.
type Kind string

// Known job kinds.
const (
	KindScan  Kind = "scan"
	KindPrint Kind = "print"
)

// Record is a completed mock job.
type Record struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Detail     string `json:"detail"`
	Timestamp  int64  `json:"ts"`
}

// Recorder is notified about every completed job.
type Recorder interface {
	// HandleJob handles a completed job record.
	HandleJob(record Record)
}

// RunnerParams represents various configuration options for the job runner.
type RunnerParams struct {
	// Duration models the time a mock job takes before completing.
	Duration time.Duration

	// Recorder is notified about completed jobs, can be nil.
	Recorder Recorder
}

// Runner performs mock scan and print jobs against registered devices.
//
// No data is transferred to real hardware: a job validates the device
// capability, takes the simulated duration and lands in the history.
type Runner struct {
	registry *devreg.Registry
	history  *History
	params   RunnerParams
}

// NewRunner is a Runner initialization.
func NewRunner(registry *devreg.Registry, history *History, params RunnerParams) *Runner {
	return &Runner{
		registry: registry,
		history:  history,
		params:   params,
	}
}

// Scan performs a mock scan on the device with the provided id.
//
// The device must be capable of scanning (scanner or combo).
func (r *Runner) Scan(ctx context.Context, deviceID string) (Record, error) {
	return r.run(ctx, deviceID, KindScan, func(dev devcore.Device) error {
		if dev.Type == devcore.TypePrinter {
			return status.StatusInvalidState
		}

		return nil
	})
}

// Print performs a mock print on the device with the provided id.
//
// The device must be capable of printing (printer or combo).
func (r *Runner) Print(ctx context.Context, deviceID string) (Record, error) {
	return r.run(ctx, deviceID, KindPrint, func(dev devcore.Device) error {
		if dev.Type == devcore.TypeScanner {
			return status.StatusInvalidState
		}

		return nil
	})
}

func (r *Runner) run(
	ctx context.Context,
	deviceID string,
	kind Kind,
	check func(dev devcore.Device) error,
) (Record, error) {
	dev, err := r.registry.Get(deviceID)
	if err != nil {
		return Record{}, err
	}

	if err := check(dev); err != nil {
		return Record{}, err
	}

	if err := r.simulateWork(ctx); err != nil {
		return Record{}, err
	}

	record := Record{
		ID:         uuid.NewString(),
		Kind:       kind,
		DeviceID:   dev.ID,
		DeviceName: dev.Name,
		Detail:     fmt.Sprintf("mock %s completed", kind),
		Timestamp:  time.Now().Unix(),
	}

	if err := r.history.Append(record); err != nil {
		core.LogErr.Printf("scan-runner: failed to persist record: id=%s err=%v\n",
			record.ID, err)
	}

	if r.params.Recorder != nil {
		r.params.Recorder.HandleJob(record)
	}

	core.LogInf.Printf("scan-runner: job completed: kind=%s device=%s\n", kind, dev.ID)

	return record, nil
}

func (r *Runner) simulateWork(ctx context.Context) error {
	if r.params.Duration <= 0 {
		return nil
	}

	timer := time.NewTimer(r.params.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}
