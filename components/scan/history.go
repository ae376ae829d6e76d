package scan

import (
	"encoding/json"
	"sort"

	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
)

// History is the persisted list of completed jobs.
type History struct {
	db stcore.DB
}

// NewHistory is a History initialization.
//
// Parameters:
//   - db to persist records, bucket stcore.BucketScanHistory.
func NewHistory(db stcore.DB) *History {
	return &History{db: db}
}

// Append persists the record.
func (h *History) Append(record Record) error {
	buf, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return h.db.Write(record.ID, stcore.Blob{Data: buf})
}

// List returns all records, newest first.
//
// Unparsable records are skipped with a log line, a single corrupted blob
// must not hide the rest of the history.
func (h *History) List() ([]Record, error) {
	var records []Record

	err := h.db.ForEach(func(key string, b stcore.Blob) error {
		var record Record

		if err := json.Unmarshal(b.Data, &record); err != nil {
			core.LogErr.Printf("scan-history: failed to parse record: key=%s err=%v\n",
				key, err)

			return nil
		}

		records = append(records, record)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp > records[j].Timestamp
		}

		return records[i].ID < records[j].ID
	})

	return records, nil
}
