// Package export writes the run artifacts: the CSV dataset consumed by
// analysis tooling and the anonymization reference file.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

// WriteCSV writes the dataset to path with one header row. Column order
// follows the dataset's materialized column list. Timestamps serialize as
// RFC3339, booleans as 0/1, and null deltas as empty cells, so the file
// round-trips into dataframe tooling without type loss.
func WriteCSV(path string, d dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(d.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(d.Columns))
	for i, row := range d.Rows {
		for j, col := range d.Columns {
			record[j] = cellValue(row, col)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv artifact: %w", err)
	}
	return nil
}

func cellValue(row dataset.Row, col string) string {
	switch col {
	case dataset.ColTimestamp:
		if !row.TimestampValid {
			return ""
		}
		return row.Timestamp.UTC().Format(time.RFC3339)
	case dataset.ColAuthor:
		return row.Author
	case dataset.ColMessage:
		return row.Message
	case dataset.ColLivingInCity:
		return strconv.Itoa(row.LivingInCity)
	case dataset.ColTechBackground:
		return strconv.Itoa(row.TechBackground)
	case dataset.ColLivingWithPartner:
		return strconv.Itoa(row.LivingWithPartner)
	case dataset.ColPartnerSince:
		if row.PartnerSince == nil {
			return ""
		}
		return row.PartnerSince.UTC().Format("2006-01-02")
	case dataset.ColWordCount:
		return strconv.Itoa(row.WordCount)
	case dataset.ColHasEmoji:
		return boolCell(row.HasEmoji)
	case dataset.ColEmojiCount:
		return strconv.Itoa(row.EmojiCount)
	case dataset.ColReactSec:
		return floatCell(row.ReactSec)
	case dataset.ColReactSecLog:
		return floatCell(row.ReactSecLog)
	case dataset.ColReactMin:
		return floatCell(row.ReactMin)
	case dataset.ColReactMinLog:
		return floatCell(row.ReactMinLog)
	case dataset.ColReactHr:
		return floatCell(row.ReactHr)
	case dataset.ColReactHrLog:
		return floatCell(row.ReactHrLog)
	case dataset.ColPolarity:
		return strconv.FormatFloat(row.Polarity, 'f', -1, 64)
	case dataset.ColCategory:
		return string(row.Category)
	case dataset.ColIsMedia:
		return boolCell(row.IsMedia)
	case dataset.ColIsPlaceholder:
		return boolCell(row.IsPlaceholder)
	case dataset.ColIsRemoved:
		return boolCell(row.IsRemoved)
	default:
		return ""
	}
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteAnonReference persists the pseudonym -> original lookup, key-sorted.
// The file is the only place original identities survive a run; it is for
// the dataset owner's eyes, never re-read by the pipeline.
func WriteAnonReference(path string, reverse map[string]string) error {
	// encoding/json writes map keys in sorted order, which keeps the
	// reference diffable across runs.
	data, err := json.MarshalIndent(reverse, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode anonymization reference: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write anonymization reference: %w", err)
	}
	return nil
}
