package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

// seqNames hands out distinct names deterministically.
type seqNames struct{ n int }

func (s *seqNames) Generate() string {
	s.n++
	return fmt.Sprintf("pseudonym-%d", s.n)
}

// constNames always returns the same name, forcing a collision.
type constNames struct{}

func (constNames) Generate() string { return "everyone" }

func TestAnonymizeBijection(t *testing.T) {
	d := baseDataset(
		row("Alice", "a"),
		row("Bob", "b"),
		row("Alice", "c"),
		row("Carol", "d"),
	)

	anon, reverse, err := Anonymize(d, &seqNames{}, nil)
	if err != nil {
		t.Fatalf("Anonymize failed: %v", err)
	}

	if len(reverse) != 3 {
		t.Fatalf("reverse map has %d entries, want 3", len(reverse))
	}

	// Applying the reverse map must recover the original author sequence.
	wantOriginals := []string{"Alice", "Bob", "Alice", "Carol"}
	for i, r := range anon.Rows {
		original, ok := reverse[r.Author]
		if !ok {
			t.Fatalf("row %d author %q not in reverse map", i, r.Author)
		}
		if original != wantOriginals[i] {
			t.Errorf("row %d recovers %q, want %q", i, original, wantOriginals[i])
		}
	}

	// Same original always gets the same pseudonym.
	if anon.Rows[0].Author != anon.Rows[2].Author {
		t.Error("Alice mapped to two different pseudonyms")
	}
	if anon.Rows[0].Author == anon.Rows[1].Author {
		t.Error("Alice and Bob share a pseudonym")
	}
}

func TestAnonymizeOriginalNamesGone(t *testing.T) {
	d := baseDataset(row("Alice", "a"), row("Bob", "b"))

	anon, _, err := Anonymize(d, &seqNames{}, nil)
	if err != nil {
		t.Fatalf("Anonymize failed: %v", err)
	}
	for _, r := range anon.Rows {
		if r.Author == "Alice" || r.Author == "Bob" {
			t.Errorf("original name %q survived anonymization", r.Author)
		}
	}
}

func TestAnonymizeCollisionIsFatal(t *testing.T) {
	d := baseDataset(row("Alice", "a"), row("Bob", "b"))

	_, _, err := Anonymize(d, constNames{}, nil)
	if !errors.Is(err, ErrPseudonymCollision) {
		t.Fatalf("err = %v, want ErrPseudonymCollision", err)
	}
}

func TestAnonymizeRetriesTakenNames(t *testing.T) {
	// A source that repeats each name once forces the retry path without
	// ever exhausting it.
	src := &seqNames{}
	repeat := &repeatingNames{inner: src}

	d := baseDataset(row("Alice", "a"), row("Bob", "b"), row("Carol", "c"))
	_, reverse, err := Anonymize(d, repeat, nil)
	if err != nil {
		t.Fatalf("Anonymize failed: %v", err)
	}
	if len(reverse) != 3 {
		t.Errorf("reverse map has %d entries, want 3", len(reverse))
	}
}

// repeatingNames yields each of the inner source's names twice in a row.
type repeatingNames struct {
	inner  *seqNames
	last   string
	repeat bool
}

func (r *repeatingNames) Generate() string {
	if r.repeat {
		r.repeat = false
		return r.last
	}
	r.last = r.inner.Generate()
	r.repeat = true
	return r.last
}

func TestAnonymizeSeededSourceIsReproducible(t *testing.T) {
	d := baseDataset(row("Alice", "a"), row("Bob", "b"))

	first, _, err := Anonymize(d, NewNameSource(42), nil)
	if err != nil {
		t.Fatalf("Anonymize failed: %v", err)
	}
	second, _, err := Anonymize(d, NewNameSource(42), nil)
	if err != nil {
		t.Fatalf("Anonymize failed: %v", err)
	}
	for i := range first.Rows {
		if first.Rows[i].Author != second.Rows[i].Author {
			t.Errorf("row %d: %q vs %q with the same seed",
				i, first.Rows[i].Author, second.Rows[i].Author)
		}
	}
}

func TestAnonymizeRequiresAuthorColumn(t *testing.T) {
	d := dataset.Dataset{Columns: []string{dataset.ColTimestamp}}
	_, _, err := Anonymize(d, &seqNames{}, nil)
	var missing *dataset.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingColumnError", err)
	}
}
