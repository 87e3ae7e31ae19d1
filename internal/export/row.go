// Package export holds the CSV emission pipeline: column layouts per export
// type, row sanitization, consent decoding, virtual-field resolution, and the
// streaming CSV writer.
package export

// Row is a raw source record as produced by a DataSource. Values may be nil,
// strings, byte slices, numbers or timestamps depending on the backing store.
type Row = map[string]interface{}

// Record is a sanitized row: every value coerced to a display string.
type Record = map[string]string
