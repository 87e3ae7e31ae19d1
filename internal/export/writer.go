package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// utf8BOM makes spreadsheet tools read the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer is a streaming CSV sink for one export file. Every emitted file
// begins with the BOM and exactly one header row; every data row has exactly
// len(headers) cells, with missing fields rendered as empty cells.
type Writer struct {
	file    *os.File
	csv     *csv.Writer
	headers []string
	keys    []string
	path    string
	closed  bool
}

// NewWriter creates the target file (and its directory), writes the encoding
// marker and the header row, and returns a writer ready for batches. The
// header labels and the per-column row lookup keys may differ (custom exports
// substitute aliases into the header only).
func NewWriter(path string, headers, keys []string) (*Writer, error) {
	if len(headers) == 0 || len(headers) != len(keys) {
		return nil, fmt.Errorf("csv writer: %d headers for %d keys", len(headers), len(keys))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	if _, err := f.Write(utf8BOM); err != nil {
		f.Close()
		return nil, fmt.Errorf("write BOM: %w", err)
	}

	w := &Writer{
		file:    f,
		csv:     csv.NewWriter(f),
		headers: headers,
		keys:    keys,
		path:    path,
	}
	if err := w.csv.Write(headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// WriteBatch appends a batch of sanitized records, projecting each onto the
// writer's column keys. The batch is flushed as a unit so callers never
// observe partial rows.
func (w *Writer) WriteBatch(records []Record) error {
	for _, rec := range records {
		row := make([]string, len(w.keys))
		for i, key := range w.keys {
			row[i] = rec[key]
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	return nil
}

// Close flushes buffered data durably to disk.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("sync export file: %w", err)
	}
	return w.file.Close()
}

// Discard closes the writer and removes the partially written file. Used on
// the failure path so aborted exports leave no orphan behind.
func (w *Writer) Discard() {
	if !w.closed {
		w.closed = true
		w.file.Close()
	}
	os.Remove(w.path)
}

// Path returns the target file path.
func (w *Writer) Path() string {
	return w.path
}

// BuildFilePath composes a unique export file path under dir. The name embeds
// the job type, a timestamp and a random suffix so it stays collision-free and
// traceable to the owning job.
func BuildFilePath(dir, jobType string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s_%s_%s.csv", jobType, now.Format("2006-01-02_15-04-05"), suffix)
	return filepath.Join(dir, name)
}
