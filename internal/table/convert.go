package table

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Convert splits each line on from and rejoins it on to. There is no quote
// handling: a quoted field that contains from is split like any other.
// The output always has the same number of lines as the input.
func Convert(lines []string, from, to string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.Join(strings.Split(line, from), to)
	}
	return out
}

// ConvertQuoted is the quote-aware variant of Convert. Fields are parsed with
// RFC 4180 rules, so a quoted field keeps embedded source delimiters. Any
// occurrence of the target delimiter inside a field is replaced by a space
// because the output has no quoting. Empty lines are kept as empty lines.
func ConvertQuoted(lines []string, from, to string) ([]string, error) {
	sep, size := utf8.DecodeRuneInString(from)
	if size == 0 || size != len(from) {
		return nil, fmt.Errorf("quote-aware conversion needs a single-character delimiter, got %q", from)
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			out = append(out, "")
			continue
		}
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		fields, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		for j, f := range fields {
			fields[j] = strings.ReplaceAll(f, to, " ")
		}
		out = append(out, strings.Join(fields, to))
	}
	return out, nil
}
