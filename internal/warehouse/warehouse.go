// Package warehouse persists finished runs to a sqlite artifact database so
// downstream analysis can query featured messages without re-running the
// pipeline.
package warehouse

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bvdhoek/chatminer/internal/dataset"
)

//go:embed sql/*.sql
var migrations embed.FS

// Store wraps the warehouse database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the warehouse at dbPath and brings its
// schema up to date.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations executes embedded migration files in order, tracking applied
// versions so reopening an existing warehouse is a no-op.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := migrations.ReadDir("sql")
	if err != nil {
		return fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, filename := range files {
		if err := applyMigration(db, filename); err != nil {
			return fmt.Errorf("migration %s failed: %w", filename, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, filename string) error {
	var count int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", filename,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if count > 0 {
		return nil
	}

	content, err := migrations.ReadFile(path.Join("sql", filename))
	if err != nil {
		return fmt.Errorf("failed to read migration: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		filename, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// RunInfo describes one completed pipeline run.
type RunInfo struct {
	ID              string
	Format          string
	InputPath       string
	StartedAt       time.Time
	FinishedAt      time.Time
	ParsedRecords   int
	DroppedRecords  int
	DistinctAuthors int
}

// WriteRun inserts the run row and every featured message in one
// transaction. Either the whole run lands in the warehouse or none of it.
func (s *Store) WriteRun(info RunInfo, d dataset.Dataset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (
			id, format, input_path, started_at, finished_at,
			parsed_records, dropped_records, distinct_authors, row_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Format, info.InputPath,
		info.StartedAt.UTC().Format(time.RFC3339),
		info.FinishedAt.UTC().Format(time.RFC3339),
		info.ParsedRecords, info.DroppedRecords, info.DistinctAuthors,
		len(d.Rows),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", info.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (
			run_id, source_line, timestamp, author, message,
			word_count, has_emoji, emoji_count,
			react_time_sec, react_time_sec_log,
			react_time_min, react_time_min_log,
			react_time_hr, react_time_hr_log,
			sentiment_polarity, sentiment_category,
			is_media, is_placeholder, is_removed,
			living_in_city, tech_background, living_with_partner,
			date_living_with_partner
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range d.Rows {
		if _, err := stmt.Exec(
			info.ID, row.Line, nullableTimestamp(row), row.Author, row.Message,
			row.WordCount, boolToInt(row.HasEmoji), row.EmojiCount,
			nullableFloat(row.ReactSec), nullableFloat(row.ReactSecLog),
			nullableFloat(row.ReactMin), nullableFloat(row.ReactMinLog),
			nullableFloat(row.ReactHr), nullableFloat(row.ReactHrLog),
			row.Polarity, string(row.Category),
			boolToInt(row.IsMedia), boolToInt(row.IsPlaceholder), boolToInt(row.IsRemoved),
			row.LivingInCity, row.TechBackground, row.LivingWithPartner,
			nullableDate(row.PartnerSince),
		); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", info.ID, err)
	}
	return nil
}

// CountMessages returns the number of stored messages for a run.
func (s *Store) CountMessages(runID string) (int, error) {
	var count int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE run_id = ?", runID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func nullableTimestamp(row dataset.Row) interface{} {
	if !row.TimestampValid {
		return nil
	}
	return row.Timestamp.UTC().Format(time.RFC3339)
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableDate(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return v.UTC().Format("2006-01-02")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
