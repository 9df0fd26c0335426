package output

import "strings"

// FormatHeader formats a markdown header of the given level.
func FormatHeader(level int, title string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + title
}

// FormatKeyValue formats a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return "- **" + key + "**: " + value
}
