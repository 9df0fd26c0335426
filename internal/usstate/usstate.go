// Package usstate maps US postal codes to full state and territory names.
package usstate

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownMarker is appended to codes that are not in the table.
const UnknownMarker = "**"

// names is built once and never written after package init.
var names = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	"DC": "District of Columbia",
	"GU": "Guam",
	"PR": "Puerto Rico",
	"MP": "Northern Mariana Islands",
	"AS": "American Samoa",
	"VI": "Virgin Islands",
}

var upper = cases.Upper(language.Und)

func canonicalCode(code string) string {
	return upper.String(strings.TrimSpace(code))
}

// Lookup returns the full name for a postal code and whether it was found.
// Matching is case-insensitive.
func Lookup(code string) (string, bool) {
	name, ok := names[canonicalCode(code)]
	return name, ok
}

// Name returns the full name for a postal code. Unknown codes are returned
// upper-cased with UnknownMarker appended so a reviewer can spot the miss
// without the pipeline failing.
func Name(code string) string {
	c := canonicalCode(code)
	if name, ok := names[c]; ok {
		return name
	}
	return c + UnknownMarker
}

// IsUnknown reports whether a value produced by Name is a lookup miss.
func IsUnknown(name string) bool {
	return strings.HasSuffix(name, UnknownMarker)
}

// Codes returns all known postal codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(names))
	for c := range names {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
