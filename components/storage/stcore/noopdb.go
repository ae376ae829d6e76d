package stcore

import "github.com/open-peripheral-systems/device-console/components/status"

// NoopDB is a non-operational database.
//
// It can be used when persistence is disabled: reads report no data, writes
// are accepted and discarded.
type NoopDB struct{}

// Read returns no data.
func (NoopDB) Read(string) (Blob, error) {
	return Blob{}, status.StatusNoData
}

// Write discards the blob.
func (NoopDB) Write(string, Blob) error {
	return nil
}

// Remove is non-operational.
func (NoopDB) Remove(string) error {
	return nil
}

// ForEach is non-operational.
func (NoopDB) ForEach(func(key string, b Blob) error) error {
	return nil
}

// Close is non-operational.
func (NoopDB) Close() error {
	return nil
}
