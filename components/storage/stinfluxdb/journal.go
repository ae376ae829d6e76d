package stinfluxdb

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devcore"
	"github.com/open-peripheral-systems/device-console/components/scan"
)

// Journal writes device lifecycle snapshots and completed jobs to InfluxDB.
//
// The journal is an optional observer: write failures are logged and never
// propagate to the mutation that triggered them.
//
// References:
//   - https://docs.influxdata.com/influxdb/cloud/api-guide/client-libraries/go/
type Journal struct {
	ctx         context.Context
	dbClient    influxdb2.Client
	writeClient api.WriteAPIBlocking
}

// NewJournal is a Journal initialization.
//
// Parameters:
//   - ctx - parent context.
//   - params - various InfluxDB configuration parameters.
func NewJournal(ctx context.Context, params DbParams) *Journal {
	dbClient := influxdb2.NewClient(params.URL, params.Token)

	return &Journal{
		ctx:         ctx,
		dbClient:    dbClient,
		writeClient: dbClient.WriteAPIBlocking(params.Org, params.Bucket),
	}
}

// HandleDeviceUpdate writes the registry snapshot as status points.
func (j *Journal) HandleDeviceUpdate(devices []devcore.Device) {
	now := time.Now()

	for _, dev := range devices {
		point := influxdb2.NewPoint(
			"device_status",
			map[string]string{
				"device_id": dev.ID,
				"transport": string(dev.Transport),
				"type":      string(dev.Type),
			},
			map[string]interface{}{
				"status": string(dev.Status),
				"name":   dev.Name,
			},
			now,
		)

		if err := j.writeClient.WritePoint(j.ctx, point); err != nil {
			core.LogErr.Printf("influxdb-journal: failed to write status point:"+
				" id=%s err=%v\n", dev.ID, err)

			return
		}
	}
}

// HandleJob writes a completed job as a point.
func (j *Journal) HandleJob(record scan.Record) {
	point := influxdb2.NewPoint(
		"device_job",
		map[string]string{
			"device_id": record.DeviceID,
			"kind":      string(record.Kind),
		},
		map[string]interface{}{
			"job_id": record.ID,
			"detail": record.Detail,
		},
		time.Unix(record.Timestamp, 0),
	)

	if err := j.writeClient.WritePoint(j.ctx, point); err != nil {
		core.LogErr.Printf("influxdb-journal: failed to write job point: id=%s err=%v\n",
			record.ID, err)
	}
}

// Close closes the underlying InfluxDB client.
func (j *Journal) Close() error {
	j.dbClient.Close()

	return nil
}
