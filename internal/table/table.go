// Package table holds flat delimited-text records and the operations the
// pipelines run over them: delimiter conversion, criteria filtering, and
// reading and writing whole files.
package table

import "strings"

// Tab and Comma are the two delimiters the pipelines use.
const (
	Tab   = "\t"
	Comma = ","
)

// Record is one line of a delimited file split into fields.
type Record []string

// Field returns the field at position i, or "" when the record is too short.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Join renders the record with the given delimiter.
func (r Record) Join(delim string) string {
	return strings.Join(r, delim)
}

// Dataset is an ordered set of records sharing one schema. Header is nil when
// the source has no header line.
type Dataset struct {
	Header Record
	Rows   []Record
}

// Parse splits lines on delim. Empty lines are dropped. When hasHeader is set
// the first non-empty line becomes the header.
func Parse(lines []string, delim string, hasHeader bool) *Dataset {
	ds := &Dataset{Rows: make([]Record, 0, len(lines))}
	for _, line := range lines {
		if line == "" {
			continue
		}
		rec := Record(strings.Split(line, delim))
		if hasHeader && ds.Header == nil {
			ds.Header = rec
			continue
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds
}

// Lines renders the dataset, header first, joined on delim.
func (d *Dataset) Lines(delim string) []string {
	lines := make([]string, 0, len(d.Rows)+1)
	if d.Header != nil {
		lines = append(lines, d.Header.Join(delim))
	}
	for _, r := range d.Rows {
		lines = append(lines, r.Join(delim))
	}
	return lines
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}
