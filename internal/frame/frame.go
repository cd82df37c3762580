// Package frame holds CSV-backed tabular data: a header row and string cells,
// converted to numeric matrices on demand.
package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoColumn is returned when a named column is not in the header.
var ErrNoColumn = errors.New("frame: column not found")

// Frame is an in-memory table. Records are row-major and every record has
// len(Columns) cells.
type Frame struct {
	Columns []string
	Records [][]string
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("frame: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("frame: read header: %w", err)
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			return nil, fmt.Errorf("frame: column %d has an empty name", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("frame: duplicate column %q", h)
		}
		seen[h] = true
		header[i] = h
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("frame: read records: %w", err)
	}
	return &Frame{Columns: header, Records: records}, nil
}

// Write renders the frame as CSV.
func (f *Frame) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Records); err != nil {
		return err
	}
	return cw.Error()
}

// Len returns the number of records.
func (f *Frame) Len() int { return len(f.Records) }

// Index returns the position of column name, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the cells of column name.
func (f *Frame) Column(name string) ([]string, error) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	out := make([]string, len(f.Records))
	for i, rec := range f.Records {
		out[i] = rec[idx]
	}
	return out, nil
}

// Drop returns a new frame without column name.
func (f *Frame) Drop(name string) (*Frame, error) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	cols := make([]string, 0, len(f.Columns)-1)
	cols = append(cols, f.Columns[:idx]...)
	cols = append(cols, f.Columns[idx+1:]...)
	recs := make([][]string, len(f.Records))
	for i, rec := range f.Records {
		r := make([]string, 0, len(rec)-1)
		r = append(r, rec[:idx]...)
		r = append(r, rec[idx+1:]...)
		recs[i] = r
	}
	return &Frame{Columns: cols, Records: recs}, nil
}

// Append adds a column with the given cells. len(cells) must equal Len().
func (f *Frame) Append(name string, cells []string) error {
	if len(cells) != len(f.Records) {
		return fmt.Errorf("frame: column %q has %d cells, want %d", name, len(cells), len(f.Records))
	}
	if f.Index(name) >= 0 {
		return fmt.Errorf("frame: duplicate column %q", name)
	}
	f.Columns = append(f.Columns, name)
	for i := range f.Records {
		f.Records[i] = append(f.Records[i], cells[i])
	}
	return nil
}

// Floats converts every cell to float64. Empty cells and "NaN" are rejected:
// the booster has no missing-value handling.
func (f *Frame) Floats() ([][]float64, error) {
	out := make([][]float64, len(f.Records))
	for i, rec := range f.Records {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := ParseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("frame: row %d column %q: %w", i+1, f.Columns[j], err)
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}

// ParseFloat parses a numeric cell. Booleans map to 0/1.
func ParseFloat(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	case "", "nan", "na", "null":
		return 0, fmt.Errorf("missing value %q", cell)
	}
	return strconv.ParseFloat(s, 64)
}
