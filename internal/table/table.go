// Package table is a keyed results table: rows identified by a tuple of
// string keys, one float column per model or sample. The first Set for a
// row fixes that row's position; columns are ordered the same way.
package table

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// keySep joins row key parts into a map key; it cannot appear in ids read
// from text tables.
const keySep = "\x1f"

// Table maps (row key, column) to a value.
type Table struct {
	keyNames []string
	index    map[string]int
	rows     []row
	colIndex map[string]int
	cols     []string
}

type row struct {
	key  []string
	vals map[string]float64
}

// New returns an empty table whose row keys have the given header names.
func New(keyNames ...string) *Table {
	return &Table{
		keyNames: append([]string(nil), keyNames...),
		index:    make(map[string]int),
		colIndex: make(map[string]int),
	}
}

// KeyNames returns the row key header names.
func (t *Table) KeyNames() []string { return append([]string(nil), t.keyNames...) }

// Set stores v at (key, col). The key must have one part per key name.
func (t *Table) Set(key []string, col string, v float64) {
	if len(key) != len(t.keyNames) {
		panic(fmt.Sprintf("table: key %v has %d parts, want %d", key, len(key), len(t.keyNames)))
	}
	k := strings.Join(key, keySep)
	i, ok := t.index[k]
	if !ok {
		i = len(t.rows)
		t.index[k] = i
		t.rows = append(t.rows, row{key: append([]string(nil), key...), vals: make(map[string]float64)})
	}
	if _, ok := t.colIndex[col]; !ok {
		t.colIndex[col] = len(t.cols)
		t.cols = append(t.cols, col)
	}
	t.rows[i].vals[col] = v
}

// Get returns the value at (key, col).
func (t *Table) Get(key []string, col string) (float64, bool) {
	i, ok := t.index[strings.Join(key, keySep)]
	if !ok {
		return 0, false
	}
	v, ok := t.rows[i].vals[col]
	return v, ok
}

// Rows returns row keys in first-occurrence order.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r.key...)
	}
	return out
}

// Columns returns column names in first-occurrence order.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// WriteTSV writes a header line followed by one line per row. Missing cells
// are left empty.
func (t *Table) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := append(append([]string(nil), t.keyNames...), t.cols...)
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}
	fields := make([]string, 0, len(header))
	for _, r := range t.rows {
		fields = append(fields[:0], r.key...)
		for _, c := range t.cols {
			if v, ok := r.vals[c]; ok {
				fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				fields = append(fields, "")
			}
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type tableJSON struct {
	Keys    []string  `json:"keys"`
	Columns []string  `json:"columns"`
	Rows    []rowJSON `json:"rows"`
}

type rowJSON struct {
	Key    []string           `json:"key"`
	Values map[string]float64 `json:"values"`
}

// MarshalJSON keeps row and column order so a decoded table writes the same
// TSV as the original.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{Keys: t.keyNames, Columns: t.cols, Rows: make([]rowJSON, len(t.rows))}
	for i, r := range t.rows {
		out.Rows[i] = rowJSON{Key: r.key, Values: r.vals}
	}
	return json.Marshal(out)
}

func (t *Table) UnmarshalJSON(b []byte) error {
	var in tableJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*t = *New(in.Keys...)
	for _, c := range in.Columns {
		t.colIndex[c] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	for _, r := range in.Rows {
		if len(r.Key) != len(t.keyNames) {
			return fmt.Errorf("table: row key %v has %d parts, want %d", r.Key, len(r.Key), len(t.keyNames))
		}
		for c, v := range r.Values {
			t.Set(r.Key, c, v)
		}
		if len(r.Values) == 0 {
			k := strings.Join(r.Key, keySep)
			t.index[k] = len(t.rows)
			t.rows = append(t.rows, row{key: r.Key, vals: map[string]float64{}})
		}
	}
	return nil
}
