// Package dataset describes the columns COVIDer reads from each source and
// decodes positional records into named rows.
//
// Column positions are bound from the header line at read time. A source that
// reorders or adds columns is still read correctly; one that drops a required
// column fails with a MissingColumnError instead of silently reading the
// wrong field.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// ErrMissingColumn is matched by every MissingColumnError.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError reports a required column absent from a header.
type MissingColumnError struct {
	Schema string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: header has no %q column", e.Schema, e.Column)
}

// Is lets errors.Is match ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Schema lists the header columns a source must provide.
type Schema struct {
	Name    string
	Columns []string
}

// Binding maps a schema's columns to positions in one concrete header.
type Binding struct {
	schema Schema
	pos    map[string]int
}

// Bind resolves every schema column against header. Header cells are
// compared after trimming spaces and a UTF-8 byte order mark.
func (s Schema) Bind(header table.Record) (*Binding, error) {
	if header == nil {
		return nil, fmt.Errorf("%s: dataset has no header", s.Name)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	b := &Binding{schema: s, pos: make(map[string]int, len(s.Columns))}
	for _, col := range s.Columns {
		i, ok := index[col]
		if !ok {
			return nil, &MissingColumnError{Schema: s.Name, Column: col}
		}
		b.pos[col] = i
	}
	return b, nil
}

// Pos returns the position of a bound column, or -1 when the column is not
// part of the schema.
func (b *Binding) Pos(col string) int {
	if i, ok := b.pos[col]; ok {
		return i
	}
	return -1
}

// Get returns the value of a bound column in r.
func (b *Binding) Get(r table.Record, col string) string {
	return r.Field(b.Pos(col))
}
