package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/goombaio/namegenerator"
	"go.uber.org/zap"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

// ErrPseudonymCollision means distinct authors collapsed onto one pseudonym.
// Proceeding would silently merge people in every per-author analysis, so
// the run must abort without writing any artifact.
var ErrPseudonymCollision = errors.New("distinct authors mapped to the same pseudonym")

// NameSource produces candidate pseudonyms. It is an interface so tests can
// force collisions and runs can be made reproducible with a seeded source.
type NameSource interface {
	Generate() string
}

// maxNameAttempts bounds the retry loop when the source hands out a name
// that is already taken.
const maxNameAttempts = 100

// NewNameSource returns a human-readable pseudonym source. Seed 0 means
// time-seeded (non-reproducible across runs).
func NewNameSource(seed int64) NameSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return namegenerator.NewNameGenerator(seed)
}

// Anonymize replaces every author with a stable pseudonym and returns the
// reverse lookup (pseudonym -> original). The mapping is computed over the
// distinct author set of this dataset only; persisting the reverse lookup is
// the orchestrator's job, keeping this function pure.
func Anonymize(d dataset.Dataset, names NameSource, logger *zap.Logger) (dataset.Dataset, map[string]string, error) {
	if err := dataset.Require("anonymize", d, dataset.ColAuthor); err != nil {
		return dataset.Dataset{}, nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Distinct authors in first-appearance order.
	var authors []string
	seen := make(map[string]bool)
	for _, row := range d.Rows {
		if !seen[row.Author] {
			seen[row.Author] = true
			authors = append(authors, row.Author)
		}
	}

	forward := make(map[string]string, len(authors))
	taken := make(map[string]bool, len(authors))
	for _, author := range authors {
		name := names.Generate()
		for attempt := 0; taken[name] && attempt < maxNameAttempts; attempt++ {
			name = names.Generate()
		}
		forward[author] = name
		taken[name] = true
	}

	// Bijection check: |codomain| must equal |domain|. The retry loop makes
	// natural collisions vanishingly rare, but a degenerate source must not
	// slip through.
	if len(taken) != len(authors) {
		return dataset.Dataset{}, nil, fmt.Errorf("%d authors, %d pseudonyms: %w",
			len(authors), len(taken), ErrPseudonymCollision)
	}

	rows := d.CopyRows()
	for i := range rows {
		rows[i].Author = forward[rows[i].Author]
	}

	reverse := make(map[string]string, len(forward))
	for original, pseudonym := range forward {
		reverse[pseudonym] = original
	}

	logger.Info("anonymized authors", zap.Int("distinct_authors", len(authors)))

	return dataset.Dataset{Rows: rows, Columns: d.WithColumns()}, reverse, nil
}
