package chatlog

import (
	"fmt"
	"regexp"
	"sort"
)

// Format identifies one chat-export line layout. Each exporter version lays
// out timestamp, author and message differently, so every Format carries its
// own field patterns and candidate time layouts.
type Format string

const (
	// FormatIOS is the bracket-delimited mobile export:
	//   [13-01-2022 22:04:05] Alice: hello
	FormatIOS Format = "ios"

	// FormatAndroid is the hyphen-delimited mobile export:
	//   13-01-2022 22:04 - Alice: hello
	FormatAndroid Format = "android"

	// FormatOld is the legacy date-prefixed export:
	//   1/13/22, 22:04 - Alice: hello
	FormatOld Format = "old"

	// FormatCSV is the pre-structured comma-separated export:
	//   2022-01-13 22:04:05,Alice,hello
	FormatCSV Format = "csv"
)

// Patterns holds the three field patterns for one export format. The
// timestamp pattern doubles as the record-start detector: a line that does
// not match it is a continuation of the previous record.
type Patterns struct {
	Timestamp *regexp.Regexp
	Author    *regexp.Regexp
	Message   *regexp.Regexp

	// Layouts are tried in order against the captured timestamp text.
	Layouts []string
}

var registry = map[Format]Patterns{
	FormatIOS: {
		Timestamp: regexp.MustCompile(`^\[(.+?)\]\s.+?:.+`),
		Author:    regexp.MustCompile(`^\[.+?\]\s(.+?):.+`),
		Message:   regexp.MustCompile(`^\[.+?\]\s.+?:\s?(.*)`),
		Layouts: []string{
			"02-01-2006 15:04:05",
			"2-1-2006 15:04:05",
			"02/01/2006, 15:04:05",
			"1/2/06, 3:04:05 PM",
		},
	},
	FormatAndroid: {
		Timestamp: regexp.MustCompile(`^(.+?)\s-\s.+?:.+`),
		Author:    regexp.MustCompile(`^.+?\s-\s(.+?):.+`),
		Message:   regexp.MustCompile(`^.+?\s-\s.+?:\s?(.*)`),
		Layouts: []string{
			"02-01-2006 15:04",
			"2-1-2006 15:04",
			"02/01/2006, 15:04",
			"1/2/06, 15:04",
		},
	},
	FormatOld: {
		Timestamp: regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2}, \d{2}:\d{2})`),
		Author:    regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}, \d{2}:\d{2}\s-\s([^:]+):`),
		Message:   regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}, \d{2}:\d{2}\s-\s[^:]+:\s?(.*)`),
		Layouts: []string{
			"2/1/06, 15:04",
			"1/2/06, 15:04",
		},
	},
	FormatCSV: {
		Timestamp: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),`),
		Author:    regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},([^,]+),`),
		Message:   regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},[^,]+,(.*)`),
		Layouts: []string{
			"2006-01-02 15:04:05",
		},
	},
}

// ParseFormat validates a format name from configuration. An unknown name is
// a configuration error, not a parse error.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := registry[f]; !ok {
		return "", fmt.Errorf("unknown export format %q (supported: %v)", name, Formats())
	}
	return f, nil
}

// Lookup returns the field patterns for a format.
func Lookup(f Format) (Patterns, error) {
	p, ok := registry[f]
	if !ok {
		return Patterns{}, fmt.Errorf("unknown export format %q (supported: %v)", f, Formats())
	}
	return p, nil
}

// Formats returns the supported format names in stable order.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for f := range registry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
