package stinfluxdb

// DbParams represents various configuration options for InfluxDB.
type DbParams struct {
	URL    string
	Org    string
	Bucket string
	Token  string
}

// Valid reports whether the parameters are complete enough to open a client.
func (p DbParams) Valid() bool {
	return p.URL != "" && p.Org != "" && p.Bucket != "" && p.Token != ""
}
