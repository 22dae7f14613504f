package warehouse

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

func testDataset() dataset.Dataset {
	sec := 30.0
	since := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	return dataset.Dataset{
		Columns: []string{dataset.ColTimestamp, dataset.ColAuthor, dataset.ColMessage},
		Rows: []dataset.Row{
			{
				Line:           2,
				Timestamp:      time.Date(2022, 1, 13, 22, 4, 0, 0, time.UTC),
				TimestampValid: true,
				Author:         "quiet-otter",
				Message:        "hoi",
				WordCount:      1,
			},
			{
				Line:              3,
				Timestamp:         time.Date(2022, 1, 13, 22, 4, 30, 0, time.UTC),
				TimestampValid:    true,
				Author:            "bold-heron",
				Message:           "hallo terug",
				WordCount:         2,
				ReactSec:          &sec,
				LivingWithPartner: 1,
				PartnerSince:      &since,
			},
			{
				Line:    4,
				Author:  "quiet-otter",
				Message: "zonder klok",
			},
		},
	}
}

func testRunInfo() RunInfo {
	return RunInfo{
		ID:              "run-test-1",
		Format:          "android",
		InputPath:       "/tmp/chat.txt",
		StartedAt:       time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2026, 8, 24, 12, 0, 5, 0, time.UTC),
		ParsedRecords:   5,
		DroppedRecords:  2,
		DistinctAuthors: 2,
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "warehouse.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh warehouse has %d runs", count)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "warehouse.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer store.Close()

	var applied int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("migrations table missing: %v", err)
	}
	if applied != 1 {
		t.Errorf("migration applied %d times, want 1", applied)
	}
}

func TestWriteRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "warehouse.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	d := testDataset()
	if err := store.WriteRun(testRunInfo(), d); err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}

	count, err := store.CountMessages("run-test-1")
	if err != nil {
		t.Fatalf("CountMessages failed: %v", err)
	}
	if count != len(d.Rows) {
		t.Errorf("stored %d messages, want %d", count, len(d.Rows))
	}

	var rowCount int
	if err := store.db.QueryRow(
		"SELECT row_count FROM runs WHERE id = ?", "run-test-1",
	).Scan(&rowCount); err != nil {
		t.Fatalf("run row missing: %v", err)
	}
	if rowCount != len(d.Rows) {
		t.Errorf("run row_count = %d, want %d", rowCount, len(d.Rows))
	}

	// Nullable columns round-trip as NULLs.
	var nullTimestamps int
	if err := store.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE run_id = ? AND timestamp IS NULL", "run-test-1",
	).Scan(&nullTimestamps); err != nil {
		t.Fatalf("null timestamp query failed: %v", err)
	}
	if nullTimestamps != 1 {
		t.Errorf("%d NULL timestamps, want 1", nullTimestamps)
	}

	var reactSec float64
	if err := store.db.QueryRow(
		"SELECT react_time_sec FROM messages WHERE run_id = ? AND source_line = 3", "run-test-1",
	).Scan(&reactSec); err != nil {
		t.Fatalf("react_time_sec query failed: %v", err)
	}
	if reactSec != 30 {
		t.Errorf("react_time_sec = %v, want 30", reactSec)
	}
}

func TestWriteRunDuplicateIDFails(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "warehouse.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	d := testDataset()
	if err := store.WriteRun(testRunInfo(), d); err != nil {
		t.Fatalf("first WriteRun failed: %v", err)
	}
	if err := store.WriteRun(testRunInfo(), d); err == nil {
		t.Fatal("duplicate run id should fail")
	}

	// The failed write must not leave partial messages behind.
	count, err := store.CountMessages("run-test-1")
	if err != nil {
		t.Fatalf("CountMessages failed: %v", err)
	}
	if count != len(d.Rows) {
		t.Errorf("message count after failed write = %d, want %d", count, len(d.Rows))
	}
}
