// Package dataset holds the tabular unit the pipeline stages pass between
// each other and the artifact writers consume.
package dataset

import (
	"fmt"
	"time"

	"github.com/bvdhoek/chatminer/internal/chatlog"
	"github.com/bvdhoek/chatminer/internal/sentiment"
)

// Column names of the final artifact. Stages declare the columns they
// materialize and check the columns they consume, so a mis-sequenced
// pipeline fails with a named column instead of silently reading zero
// values.
const (
	ColTimestamp = "timestamp"
	ColAuthor    = "author"
	ColMessage   = "message"

	ColLivingInCity      = "living_in_city"
	ColTechBackground    = "tech_background"
	ColLivingWithPartner = "living_with_partner"
	ColPartnerSince      = "date_living_with_partner"

	ColWordCount     = "word_count"
	ColHasEmoji      = "has_emoji"
	ColEmojiCount    = "emoji_count"
	ColReactSec      = "react_time_sec"
	ColReactSecLog   = "react_time_sec_log"
	ColReactMin      = "react_time_min"
	ColReactMinLog   = "react_time_min_log"
	ColReactHr       = "react_time_hr"
	ColReactHrLog    = "react_time_hr_log"
	ColPolarity      = "sentiment_polarity"
	ColCategory      = "sentiment_category"
	ColIsMedia       = "is_media"
	ColIsPlaceholder = "is_placeholder"
	ColIsRemoved     = "is_removed"
)

// Row is one message with every derived column. Parser output populates the
// base fields; each stage fills in its own group.
type Row struct {
	Line           int
	Timestamp      time.Time
	TimestampValid bool
	Author         string
	Message        string

	// Identity-dependent attributes, resolved against the original author
	// name before anonymization erases it.
	LivingInCity      int
	TechBackground    int
	LivingWithPartner int
	PartnerSince      *time.Time

	// Content-dependent features.
	WordCount     int
	HasEmoji      bool
	EmojiCount    int
	ReactSec      *float64
	ReactSecLog   *float64
	ReactMin      *float64
	ReactMinLog   *float64
	ReactHr       *float64
	ReactHrLog    *float64
	Polarity      float64
	Category      sentiment.Category
	IsMedia       bool
	IsPlaceholder bool
	IsRemoved     bool
}

// Dataset is the ordered row collection passed between stages. Stages never
// mutate their input; they return a new Dataset with copied rows and an
// extended column set.
type Dataset struct {
	Rows    []Row
	Columns []string
}

// FromRecords lifts parser output into the base dataset.
func FromRecords(records []chatlog.Record) Dataset {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{
			Line:           rec.Line,
			Timestamp:      rec.Timestamp,
			TimestampValid: rec.TimestampValid,
			Author:         rec.Author,
			Message:        rec.Message,
		}
	}
	return Dataset{
		Rows:    rows,
		Columns: []string{ColTimestamp, ColAuthor, ColMessage},
	}
}

// HasColumn reports whether a column has been materialized.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// WithColumns returns a copy of the column list extended with names not yet
// present. Re-deriving a column overwrites its values, never duplicates it.
func (d Dataset) WithColumns(names ...string) []string {
	columns := make([]string, len(d.Columns), len(d.Columns)+len(names))
	copy(columns, d.Columns)
	seen := make(map[string]bool, len(columns)+len(names))
	for _, c := range columns {
		seen[c] = true
	}
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}
	return columns
}

// CopyRows returns a fresh row slice so stages can fill columns without
// touching their input.
func (d Dataset) CopyRows() []Row {
	rows := make([]Row, len(d.Rows))
	copy(rows, d.Rows)
	return rows
}

// MissingColumnError reports a stage sequenced before one of its inputs.
type MissingColumnError struct {
	Stage  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("stage %s: required column %q is not present", e.Stage, e.Column)
}

// Require checks a stage's inputs up front.
func Require(stage string, d Dataset, names ...string) error {
	for _, name := range names {
		if !d.HasColumn(name) {
			return &MissingColumnError{Stage: stage, Column: name}
		}
	}
	return nil
}
