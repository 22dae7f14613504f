package pipeline

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

// Sentinel values the exporter emits for rows that carry no usable message.
const (
	// UnknownAuthor marks rows the exporter could not attribute.
	UnknownAuthor = "Unknown"

	// PendingPlaceholder is the body of a message that had not arrived when
	// the export was taken.
	PendingPlaceholder = "Wachten op dit bericht"
)

// Group exports prefix third-party author names with a tilde and a narrow
// no-break space.
var authorPrefix = regexp.MustCompile("^~\u202f")

// CleanStats counts what Clean removed, for the run summary.
type CleanStats struct {
	HeaderDropped  int
	UnknownAuthors int
	Placeholders   int
}

// Dropped returns the total number of rows removed.
func (s CleanStats) Dropped() int {
	return s.HeaderDropped + s.UnknownAuthors + s.Placeholders
}

// Clean normalizes author names and removes sentinel rows. The first row is
// dropped unconditionally: exports open with an artifact row (encryption
// notice or column header) regardless of content. Ordering among surviving
// rows is preserved; dropped rows are gone for good, which is the pipeline's
// one intentional data-loss boundary.
func Clean(d dataset.Dataset, logger *zap.Logger) (dataset.Dataset, CleanStats, error) {
	if err := dataset.Require("clean", d, dataset.ColTimestamp, dataset.ColAuthor, dataset.ColMessage); err != nil {
		return dataset.Dataset{}, CleanStats{}, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stats := CleanStats{}
	rows := d.CopyRows()
	if len(rows) > 0 {
		rows = rows[1:]
		stats.HeaderDropped = 1
	}

	kept := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		row.Author = authorPrefix.ReplaceAllString(row.Author, "")
		switch {
		case row.Author == UnknownAuthor:
			stats.UnknownAuthors++
		case row.Message == PendingPlaceholder:
			stats.Placeholders++
		default:
			kept = append(kept, row)
		}
	}

	logger.Info("cleaned dataset",
		zap.Int("input_rows", len(d.Rows)),
		zap.Int("kept_rows", len(kept)),
		zap.Int("header_dropped", stats.HeaderDropped),
		zap.Int("unknown_authors", stats.UnknownAuthors),
		zap.Int("pending_placeholders", stats.Placeholders))

	return dataset.Dataset{Rows: kept, Columns: d.WithColumns()}, stats, nil
}

// containsFold reports a case-insensitive substring match. Shared by the
// sentinel-flag features.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
