package scan

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
)

// ExtractionRecord is a persisted structured-extraction result.
type ExtractionRecord struct {
	ID        string                 `json:"id"`
	Timestamp int64                  `json:"ts"`
	Fields    aicore.ExtractedRecord `json:"fields"`
}

// ExtractionHistory is the persisted list of structured-extraction results.
type ExtractionHistory struct {
	db stcore.DB
}

// NewExtractionHistory is an ExtractionHistory initialization.
//
// Parameters:
//   - db to persist records, bucket stcore.BucketExtractionHistory.
func NewExtractionHistory(db stcore.DB) *ExtractionHistory {
	return &ExtractionHistory{db: db}
}

// Append persists the extraction result and returns the stored record.
func (h *ExtractionHistory) Append(fields aicore.ExtractedRecord) (ExtractionRecord, error) {
	record := ExtractionRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Fields:    fields,
	}

	buf, err := json.Marshal(record)
	if err != nil {
		return ExtractionRecord{}, err
	}

	if err := h.db.Write(record.ID, stcore.Blob{Data: buf}); err != nil {
		return ExtractionRecord{}, err
	}

	return record, nil
}

// List returns all records, newest first.
func (h *ExtractionHistory) List() ([]ExtractionRecord, error) {
	var records []ExtractionRecord

	err := h.db.ForEach(func(key string, b stcore.Blob) error {
		var record ExtractionRecord

		if err := json.Unmarshal(b.Data, &record); err != nil {
			core.LogErr.Printf("extraction-history: failed to parse record: key=%s"+
				" err=%v\n", key, err)

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
