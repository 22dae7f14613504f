// Package pipeline implements the transformation stages between parsed chat
// records and the final featured dataset, plus the orchestrator that
// sequences them.
//
// Stage order is load-bearing: cleaning restores the original author names
// the attribute lookups are keyed by, so identity features must run before
// anonymization, and anonymization must run before anything leaves the
// process. Content features only need message text and timestamps and run
// last.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bvdhoek/chatminer/internal/chatlog"
	"github.com/bvdhoek/chatminer/internal/config"
	"github.com/bvdhoek/chatminer/internal/dataset"
	"github.com/bvdhoek/chatminer/internal/export"
	"github.com/bvdhoek/chatminer/internal/warehouse"
)

// ReferenceFilename is the anonymization reference written next to the CSV
// artifact.
const ReferenceFilename = "anon_reference.json"

// Result summarizes one completed run.
type Result struct {
	RunID           string `json:"run_id"`
	ParsedRecords   int    `json:"parsed_records"`
	DroppedRecords  int    `json:"dropped_records"`
	Rows            int    `json:"rows"`
	DistinctAuthors int    `json:"distinct_authors"`
	CSVPath         string `json:"csv_path"`
	ReferencePath   string `json:"reference_path"`
	WarehousePath   string `json:"warehouse_path"`
}

// Run executes the full pipeline: parse, clean, identity features,
// anonymize, content features, then artifact writes. Any stage error aborts
// the run before a single byte of artifact is written, and a failure while
// emitting artifacts removes the ones already written; there are no partial
// outputs to clean up after a failure.
//
// names may be nil, in which case a source seeded from the config is used.
func Run(cfg *config.Config, names NameSource, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	started := time.Now()

	parser, err := chatlog.NewParser(chatlog.Format(cfg.Format), logger)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	records, err := parser.Parse(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	logger.Info("parsed input",
		zap.String("input", cfg.Input),
		zap.String("format", cfg.Format),
		zap.Int("records", len(records)))

	ds := dataset.FromRecords(records)

	ds, stats, err := Clean(ds, logger)
	if err != nil {
		return nil, err
	}

	dates, err := cfg.Authors.CohabitingDates()
	if err != nil {
		return nil, err
	}
	tables := NewAuthorTables(cfg.Authors.City, cfg.Authors.Technical, dates)
	ds, err = IdentityFeatures(ds, tables, logger)
	if err != nil {
		return nil, err
	}

	if names == nil {
		names = NewNameSource(cfg.Anonymizer.Seed)
	}
	ds, reverse, err := Anonymize(ds, names, logger)
	if err != nil {
		return nil, err
	}

	ds, err = ContentFeatures(ds, FeatureOptions{
		PositiveThreshold: cfg.Sentiment.PositiveThreshold,
		NegativeThreshold: cfg.Sentiment.NegativeThreshold,
		LogOffset:         cfg.Features.LogOffset,
	}, logger)
	if err != nil {
		return nil, err
	}

	// All pure stages succeeded; only now touch the filesystem.
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.New().String()
	csvPath := filepath.Join(cfg.OutputDir,
		fmt.Sprintf("chat-features-%s-%s.csv", started.Format("20060102-150405"), runID[:8]))
	referencePath := filepath.Join(cfg.OutputDir, ReferenceFilename)

	// Files first, the warehouse transaction last. If anything after the
	// first write fails, the files are removed so a failed run leaves no
	// artifacts behind.
	discard := func() {
		os.Remove(csvPath)
		os.Remove(referencePath)
	}

	if err := export.WriteCSV(csvPath, ds); err != nil {
		return nil, err
	}
	if err := export.WriteAnonReference(referencePath, reverse); err != nil {
		discard()
		return nil, err
	}

	store, err := warehouse.Open(cfg.WarehousePath)
	if err != nil {
		discard()
		return nil, err
	}
	defer store.Close()

	info := warehouse.RunInfo{
		ID:              runID,
		Format:          cfg.Format,
		InputPath:       cfg.Input,
		StartedAt:       started,
		FinishedAt:      time.Now(),
		ParsedRecords:   len(records),
		DroppedRecords:  stats.Dropped(),
		DistinctAuthors: len(reverse),
	}
	if err := store.WriteRun(info, ds); err != nil {
		discard()
		return nil, err
	}

	result := &Result{
		RunID:           runID,
		ParsedRecords:   len(records),
		DroppedRecords:  stats.Dropped(),
		Rows:            len(ds.Rows),
		DistinctAuthors: len(reverse),
		CSVPath:         csvPath,
		ReferencePath:   referencePath,
		WarehousePath:   cfg.WarehousePath,
	}
	logger.Info("pipeline run complete",
		zap.String("run_id", result.RunID),
		zap.Int("rows", result.Rows),
		zap.String("csv", result.CSVPath),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}
