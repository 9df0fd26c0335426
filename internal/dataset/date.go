package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for dates in none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// CanonicalLayout is the date form used as a sort and join key. Lexicographic
// order of strings in this layout equals chronological order.
const CanonicalLayout = "2006-01-02"

var dateLayouts = []string{
	CanonicalLayout,
	"20060102",
	"2006-1-2",
	"1/2/2006",
}

// CanonicalDate rewrites a date to YYYY-MM-DD. It accepts YYYY-MM-DD,
// YYYYMMDD (COVID Tracking), unpadded YYYY-M-D and M/D/YYYY.
func CanonicalDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
