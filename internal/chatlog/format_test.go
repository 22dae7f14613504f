package chatlog

import (
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"ios", "android", "old", "csv"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", name, err)
		}
		if string(f) != name {
			t.Errorf("ParseFormat(%q) = %q", name, f)
		}
	}
}

func TestParseFormatUnknown(t *testing.T) {
	if _, err := ParseFormat("telegram"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup(Format("nope")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPatternsSliceFields(t *testing.T) {
	tests := []struct {
		format    Format
		line      string
		timestamp string
		author    string
		message   string
	}{
		{
			format:    FormatIOS,
			line:      "[13-01-2022 22:04:05] Alice: hello there",
			timestamp: "13-01-2022 22:04:05",
			author:    "Alice",
			message:   "hello there",
		},
		{
			format:    FormatAndroid,
			line:      "13-01-2022 22:04 - Bob de Vries: hoi",
			timestamp: "13-01-2022 22:04",
			author:    "Bob de Vries",
			message:   "hoi",
		},
		{
			format:    FormatOld,
			line:      "1/13/22, 22:04 - Alice: old style",
			timestamp: "1/13/22, 22:04",
			author:    "Alice",
			message:   "old style",
		},
		{
			format:    FormatCSV,
			line:      "2022-01-13 22:04:05,Alice,hello csv",
			timestamp: "2022-01-13 22:04:05",
			author:    "Alice",
			message:   "hello csv",
		},
	}

	for _, tt := range tests {
		p, err := Lookup(tt.format)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", tt.format, err)
		}

		m := p.Timestamp.FindStringSubmatch(tt.line)
		if m == nil {
			t.Errorf("%s: timestamp pattern did not match %q", tt.format, tt.line)
			continue
		}
		if m[1] != tt.timestamp {
			t.Errorf("%s: timestamp = %q, want %q", tt.format, m[1], tt.timestamp)
		}

		if m := p.Author.FindStringSubmatch(tt.line); m == nil || m[1] != tt.author {
			t.Errorf("%s: author match = %v, want %q", tt.format, m, tt.author)
		}
		if m := p.Message.FindStringSubmatch(tt.line); m == nil || m[1] != tt.message {
			t.Errorf("%s: message match = %v, want %q", tt.format, m, tt.message)
		}
	}
}

func TestLayoutsParseCapturedTimestamp(t *testing.T) {
	samples := map[Format]string{
		FormatIOS:     "13-01-2022 22:04:05",
		FormatAndroid: "13-01-2022 22:04",
		FormatOld:     "1/13/22, 22:04",
		FormatCSV:     "2022-01-13 22:04:05",
	}

	for format, sample := range samples {
		p, err := Lookup(format)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", format, err)
		}
		parser := &Parser{format: format, patterns: p}
		ts, ok := parser.parseTimestamp(sample)
		if !ok {
			t.Errorf("%s: no layout parses %q", format, sample)
			continue
		}
		if ts.Day() != 13 || ts.Month() != 1 || ts.Hour() != 22 || ts.Minute() != 4 {
			t.Errorf("%s: parsed %q as %v", format, sample, ts)
		}
	}
}

func TestFormatsSorted(t *testing.T) {
	names := Formats()
	if len(names) != 4 {
		t.Fatalf("Formats() returned %d names, want 4", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Formats() not sorted: %v", names)
		}
	}
}
