// Package persist implements the two external-interface adapters of spec
// §6.2: a CSV row dump/load for per-agent tabular exchange, and a binary
// whole-model checkpoint. Both are built on the standard library
// (encoding/csv, encoding/gob) since no CSV or binary-serialization library
// appears anywhere in the retrieved pack, the teacher included (DESIGN.md).
package persist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"abm/abmerr"
	"abm/agent"
	"abm/collect"
	"abm/identity"
)

// CSVAdapter dumps and loads agents as one row per agent: an "id" column
// followed by one column per Accessor, matching collect's column-naming
// convention for bare accessors so the same field names mean the same
// thing in both a live run's data collection and its CSV export.
type CSVAdapter struct {
	Accessors []collect.Accessor
}

// Dump writes one CSV row per agent: header, then "id" plus each accessor's
// value formatted with formatCell. An accessor reporting ok=false for a
// given agent (field doesn't apply to that variant) writes an empty cell.
func (c *CSVAdapter) Dump(w io.Writer, agents []agent.Agent) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(c.Accessors)+1)
	header = append(header, "id")
	for _, a := range c.Accessors {
		header = append(header, a.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: writing csv header: %v", abmerr.ErrIO, err)
	}
	for _, ag := range agents {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatUint(uint64(ag.AgentID()), 10))
		for _, acc := range c.Accessors {
			val, ok := acc.Get(ag)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatCell(val))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: writing csv row for agent %d: %v", abmerr.ErrIO, ag.AgentID(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flushing csv: %v", abmerr.ErrIO, err)
	}
	return nil
}

// Row is one decoded CSV record: the agent's original id, plus its raw
// string field values keyed by column name (excluding "id").
type Row struct {
	ID     identity.ID
	Fields map[string]string
}

// LoadCSV parses r's header and rows into Rows. mixedVariant models that used
// a column map to name fields differently than the engine's own accessor
// names should pass columnMap (CSV header name -> accessor/field name
// expected by the caller's Construct function); a nil columnMap uses the
// header names verbatim, matching "load via column-map or by-position".
func LoadCSV(r io.Reader, columnMap map[string]string) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv: %v", abmerr.ErrIO, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	if len(header) == 0 || header[0] != "id" {
		return nil, fmt.Errorf("%w: csv must have \"id\" as its first column", abmerr.ErrConfig)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		id, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing id %q: %v", abmerr.ErrConfig, rec[0], err)
		}
		fields := make(map[string]string, len(header)-1)
		for i := 1; i < len(header) && i < len(rec); i++ {
			name := header[i]
			if columnMap != nil {
				if mapped, ok := columnMap[name]; ok {
					name = mapped
				}
			}
			fields[name] = rec[i]
		}
		rows = append(rows, Row{ID: identity.ID(id), Fields: fields})
	}
	return rows, nil
}

func formatCell(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}
