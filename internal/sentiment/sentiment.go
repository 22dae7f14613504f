// Package sentiment scores message polarity and buckets it into coarse
// categories for per-author aggregation.
package sentiment

import (
	"strings"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// Category is the coarse sentiment bucket of a message.
type Category string

const (
	Positive Category = "Positive"
	Negative Category = "Negative"
	Neutral  Category = "Neutral"
)

// Default classification thresholds. A small buffer around zero keeps weakly
// scored messages out of the Positive/Negative buckets.
const (
	DefaultPositiveThreshold = 0.05
	DefaultNegativeThreshold = -0.05
)

// Polarity scores text in [-1.0, 1.0]. Empty or whitespace-only text scores
// 0.0, matching the treatment of missing messages.
func Polarity(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	return sentitext.PolarityScore(parsed).Compound
}

// Classify buckets a polarity score. Both boundaries are exclusive: a score
// exactly at the positive threshold is Neutral.
func Classify(polarity, positiveThreshold, negativeThreshold float64) Category {
	switch {
	case polarity > positiveThreshold:
		return Positive
	case polarity < negativeThreshold:
		return Negative
	default:
		return Neutral
	}
}
