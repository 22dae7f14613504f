package chatlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoRecords is returned when non-empty input produces zero records,
// which means the configured format does not match the file.
var ErrNoRecords = errors.New("no records parsed: export format does not match input")

// Record is one parsed chat message. Continuation lines are already joined
// into Message by the time a Record leaves the parser.
type Record struct {
	Line           int       // source line where the record starts (1-based)
	Timestamp      time.Time // zero when TimestampValid is false
	TimestampValid bool
	Author         string
	Message        string
}

// Parser turns an exported chat-log stream into ordered Records.
type Parser struct {
	format   Format
	patterns Patterns
	logger   *zap.Logger
}

// NewParser creates a parser for one export format.
func NewParser(format Format, logger *zap.Logger) (*Parser, error) {
	patterns, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{format: format, patterns: patterns, logger: logger}, nil
}

// Parse reads the input line by line. A line matching the timestamp pattern
// opens a new record; any other line is appended to the most recently opened
// record with a newline join. Output order equals input order.
//
// A continuation line arriving before the first record cannot be attributed
// to an author and is dropped with a warning. A record whose timestamp text
// fails to parse is kept with TimestampValid false; it is never dropped here.
func (p *Parser) Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	sawContent := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		m := p.patterns.Timestamp.FindStringSubmatch(line)
		if m == nil {
			if len(records) > 0 {
				last := &records[len(records)-1]
				last.Message = last.Message + "\n" + line
				sawContent = true
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			sawContent = true
			p.logger.Warn("dropping continuation line with no open record",
				zap.Int("line", lineNo))
			continue
		}
		sawContent = true

		rec := Record{Line: lineNo}
		rec.Timestamp, rec.TimestampValid = p.parseTimestamp(m[1])
		if !rec.TimestampValid {
			p.logger.Warn("timestamp does not parse, keeping record without one",
				zap.Int("line", lineNo),
				zap.String("timestamp", m[1]))
		}
		if am := p.patterns.Author.FindStringSubmatch(line); am != nil {
			rec.Author = strings.TrimSpace(am[1])
		}
		if mm := p.patterns.Message.FindStringSubmatch(line); mm != nil {
			rec.Message = mm[1]
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if len(records) == 0 && sawContent {
		return nil, fmt.Errorf("format %q: %w", p.format, ErrNoRecords)
	}
	return records, nil
}

// parseTimestamp tries the format's candidate layouts in order.
func (p *Parser) parseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range p.patterns.Layouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
