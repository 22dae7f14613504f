package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bvdhoek/chatminer/internal/dataset"
	"github.com/bvdhoek/chatminer/internal/emoji"
	"github.com/bvdhoek/chatminer/internal/sentiment"
)

// Sentinel message bodies the exporter substitutes for content it does not
// carry. Matched case-insensitively as substrings.
const (
	MediaOmittedMarker   = "<Media weggelaten>"
	RemovedMessageMarker = "Je hebt dit bericht verwijderd"
)

// AuthorTables are the authoritative per-author attribute lookups, keyed by
// original author name. They are configuration data: the pipeline never
// derives them.
type AuthorTables struct {
	City       map[string]bool
	Technical  map[string]bool
	Cohabiting map[string]time.Time
}

// NewAuthorTables builds lookup sets from configured name lists.
func NewAuthorTables(city, technical []string, cohabiting map[string]time.Time) AuthorTables {
	t := AuthorTables{
		City:       make(map[string]bool, len(city)),
		Technical:  make(map[string]bool, len(technical)),
		Cohabiting: cohabiting,
	}
	for _, name := range city {
		t.City[name] = true
	}
	for _, name := range technical {
		t.Technical[name] = true
	}
	return t
}

// IdentityFeatures resolves the author-attribute columns. It must run before
// Anonymize: the tables are keyed by original author names, and exact string
// match against a pseudonym would yield all-negative values without any
// error. Authors absent from a table get 0 / no date.
func IdentityFeatures(d dataset.Dataset, tables AuthorTables, logger *zap.Logger) (dataset.Dataset, error) {
	if err := dataset.Require("identity-features", d, dataset.ColAuthor); err != nil {
		return dataset.Dataset{}, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rows := d.CopyRows()
	for i := range rows {
		rows[i].LivingInCity = boolToInt(tables.City[rows[i].Author])
		rows[i].TechBackground = boolToInt(tables.Technical[rows[i].Author])
		if since, ok := tables.Cohabiting[rows[i].Author]; ok {
			rows[i].LivingWithPartner = 1
			sinceCopy := since
			rows[i].PartnerSince = &sinceCopy
		} else {
			rows[i].LivingWithPartner = 0
			rows[i].PartnerSince = nil
		}
	}

	logger.Info("resolved author attributes", zap.Int("rows", len(rows)))

	return dataset.Dataset{
		Rows: rows,
		Columns: d.WithColumns(
			dataset.ColLivingInCity, dataset.ColTechBackground,
			dataset.ColLivingWithPartner, dataset.ColPartnerSince,
		),
	}, nil
}

// FeatureOptions carries the content-feature tunables.
type FeatureOptions struct {
	// PositiveThreshold and NegativeThreshold bucket sentiment polarity.
	PositiveThreshold float64
	NegativeThreshold float64

	// LogOffset is added to each reaction-time delta before the natural log
	// so a zero delta stays defined.
	LogOffset float64

	// Polarity scores message text in [-1, 1]. Nil uses the lexicon scorer.
	Polarity func(string) float64
}

// DefaultFeatureOptions returns the carried-over defaults.
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{
		PositiveThreshold: sentiment.DefaultPositiveThreshold,
		NegativeThreshold: sentiment.DefaultNegativeThreshold,
		LogOffset:         1.0,
	}
}

// ContentFeatures derives every message-content column: word count, emoji
// presence and count, sentinel flags, sentiment, and the reaction-time
// deltas. All of them are pure per-row functions except the deltas, which
// need the full sequence sorted by timestamp.
//
// Re-running on already-featured rows overwrites each column with the same
// values; nothing is appended twice.
func ContentFeatures(d dataset.Dataset, opts FeatureOptions, logger *zap.Logger) (dataset.Dataset, error) {
	if err := dataset.Require("content-features", d, dataset.ColTimestamp, dataset.ColMessage); err != nil {
		return dataset.Dataset{}, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	polarity := opts.Polarity
	if polarity == nil {
		polarity = sentiment.Polarity
	}

	rows := d.CopyRows()
	for i := range rows {
		row := &rows[i]
		row.WordCount = len(strings.Fields(row.Message))
		row.HasEmoji = emoji.Contains(row.Message)
		row.EmojiCount = emoji.Count(row.Message)
		row.IsMedia = containsFold(row.Message, MediaOmittedMarker)
		row.IsPlaceholder = containsFold(row.Message, PendingPlaceholder)
		row.IsRemoved = containsFold(row.Message, RemovedMessageMarker)
		row.Polarity = polarity(row.Message)
		row.Category = sentiment.Classify(row.Polarity, opts.PositiveThreshold, opts.NegativeThreshold)
	}

	sortByTimestamp(rows)
	addReactionTimes(rows, opts.LogOffset)

	logger.Info("derived content features", zap.Int("rows", len(rows)))

	return dataset.Dataset{
		Rows: rows,
		Columns: d.WithColumns(
			dataset.ColWordCount, dataset.ColHasEmoji, dataset.ColEmojiCount,
			dataset.ColReactSec, dataset.ColReactSecLog,
			dataset.ColReactMin, dataset.ColReactMinLog,
			dataset.ColReactHr, dataset.ColReactHrLog,
			dataset.ColPolarity, dataset.ColCategory,
			dataset.ColIsMedia, dataset.ColIsPlaceholder, dataset.ColIsRemoved,
		),
	}, nil
}

// sortByTimestamp orders rows ascending by timestamp, stably: rows sharing a
// timestamp keep their original relative order (export granularity is often
// one minute, so ties are common). Rows without a parseable timestamp sort
// after all timestamped rows, also in original order.
func sortByTimestamp(rows []dataset.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TimestampValid != b.TimestampValid {
			return a.TimestampValid
		}
		if !a.TimestampValid {
			return false
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// addReactionTimes fills the delta columns against the previous timestamped
// row in sorted order. The first timestamped row and every row without a
// valid timestamp keep null deltas.
func addReactionTimes(rows []dataset.Row, logOffset float64) {
	var prev *time.Time
	for i := range rows {
		row := &rows[i]
		row.ReactSec, row.ReactSecLog = nil, nil
		row.ReactMin, row.ReactMinLog = nil, nil
		row.ReactHr, row.ReactHrLog = nil, nil
		if !row.TimestampValid {
			continue
		}
		if prev != nil {
			sec := row.Timestamp.Sub(*prev).Seconds()
			min := sec / 60
			hr := sec / 3600
			row.ReactSec = &sec
			row.ReactMin = &min
			row.ReactHr = &hr
			row.ReactSecLog = offsetLog(sec, logOffset)
			row.ReactMinLog = offsetLog(min, logOffset)
			row.ReactHrLog = offsetLog(hr, logOffset)
		}
		ts := row.Timestamp
		prev = &ts
	}
}

// offsetLog returns ln(v+offset), or nil when the shifted value is not
// positive and the log is undefined.
func offsetLog(v, offset float64) *float64 {
	shifted := v + offset
	if shifted <= 0 {
		return nil
	}
	l := math.Log(shifted)
	return &l
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
