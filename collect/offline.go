package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"abm/abmerr"
)

// OfflineBackend is the columnar-file sink an OfflineWriter flushes rows
// to. The stdlib-backed CSVBackend below is the only reference
// implementation shipped, since no Arrow/columnar library appears anywhere
// in the retrieved pack (spec §6.2 "Columnar (Arrow)" is modeled as an
// interface for exactly this reason).
type OfflineBackend interface {
	WriteHeader(columns []string) error
	WriteRow(values []interface{}) error
	Flush() error
}

// CSVBackend is the stdlib reference OfflineBackend implementation.
type CSVBackend struct {
	w *csv.Writer
}

// NewCSVBackend wraps an io.Writer (typically an *os.File) as an
// OfflineBackend.
func NewCSVBackend(w io.Writer) *CSVBackend {
	return &CSVBackend{w: csv.NewWriter(w)}
}

func (c *CSVBackend) WriteHeader(columns []string) error {
	return c.w.Write(columns)
}

func (c *CSVBackend) WriteRow(values []interface{}) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = formatCell(v)
	}
	return c.w.Write(record)
}

func (c *CSVBackend) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// OfflineWriter buffers frame rows and flushes to an OfflineBackend every
// writingInterval collection ticks (spec §4.5's "write rows incrementally
// ... every writing_interval collection ticks"). A background channerics
// ticker additionally forces a flush at most once per flushFloor, so a long
// idle gap between collection ticks (e.g. a slow model_step) doesn't leave
// rows sitting unflushed indefinitely — the same "don't starve downstream
// consumers" motivation as the teacher's fastview throttling ticker.
type OfflineWriter struct {
	backend         OfflineBackend
	columns         []string
	writingInterval int
	ticksSeen       int
	headerWritten   bool
	done            chan struct{}
}

// NewOfflineWriter constructs a writer flushing every writingInterval
// collection ticks, with flushFloor as the background forced-flush period
// (0 disables the background ticker).
func NewOfflineWriter(backend OfflineBackend, columns []string, writingInterval int, flushFloor time.Duration) (*OfflineWriter, error) {
	if writingInterval <= 0 {
		return nil, fmt.Errorf("%w: writing_interval must be positive", abmerr.ErrConfig)
	}
	ow := &OfflineWriter{backend: backend, columns: columns, writingInterval: writingInterval, done: make(chan struct{})}
	if flushFloor > 0 {
		go ow.backgroundFlush(flushFloor)
	}
	return ow, nil
}

func (ow *OfflineWriter) backgroundFlush(period time.Duration) {
	for range channerics.NewTicker(ow.done, period) {
		_ = ow.backend.Flush()
	}
}

// WriteRow appends one row (values ordered per ow.columns), flushing the
// backend every writingInterval calls.
func (ow *OfflineWriter) WriteRow(values map[string]interface{}) error {
	if !ow.headerWritten {
		if err := ow.backend.WriteHeader(ow.columns); err != nil {
			return fmt.Errorf("%w: %v", abmerr.ErrIO, err)
		}
		ow.headerWritten = true
	}
	ordered := make([]interface{}, len(ow.columns))
	for i, c := range ow.columns {
		ordered[i] = values[c]
	}
	if err := ow.backend.WriteRow(ordered); err != nil {
		return fmt.Errorf("%w: %v", abmerr.ErrIO, err)
	}
	ow.ticksSeen++
	if ow.ticksSeen%ow.writingInterval == 0 {
		if err := ow.backend.Flush(); err != nil {
			return fmt.Errorf("%w: %v", abmerr.ErrIO, err)
		}
	}
	return nil
}

// Close flushes any remaining buffered rows and stops the background
// ticker.
func (ow *OfflineWriter) Close() error {
	close(ow.done)
	if err := ow.backend.Flush(); err != nil {
		return fmt.Errorf("%w: %v", abmerr.ErrIO, err)
	}
	return nil
}
