package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/aleister1102/mirrorinc/internal/common"
)

// Run statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusPartial   = "PARTIAL"
)

// Run is one recorded extraction.
type Run struct {
	ID          int64
	RunID       string
	TargetURL   string
	FinalURL    string
	StartedAt   time.Time
	CompletedAt time.Time
	Status      string
	OutputDir   string
	Downloaded  int
	Failed      int
	TotalBytes  int64
	Document    string
	AssetURLs   []string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store keeps the run history in SQLite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "HistoryStore").Logger()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, common.NewFilesystemError("mkdir", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", path).Msg("History database ready")
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS extraction_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT UNIQUE NOT NULL,
		target_url TEXT NOT NULL,
		final_url TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		output_dir TEXT,
		downloaded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		total_bytes INTEGER DEFAULT 0,
		document TEXT,
		asset_urls TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_extraction_runs_target ON extraction_runs (target_url, started_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts run.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	query := `INSERT INTO extraction_runs
		(run_id, target_url, final_url, started_at, completed_at, status, output_dir, downloaded, failed, total_bytes, document, asset_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		run.RunID, run.TargetURL, run.FinalURL, run.StartedAt.UTC(), run.CompletedAt.UTC(), run.Status,
		run.OutputDir, run.Downloaded, run.Failed, run.TotalBytes, run.Document, strings.Join(run.AssetURLs, "\n"))
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", run.RunID).Msg("Failed to record run")
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}
	s.logger.Info().Str("run_id", run.RunID).Str("target_url", run.TargetURL).Str("status", run.Status).Msg("Run recorded in history")
	return nil
}

// LatestRun returns the most recent run of targetURL, ignoring excludeRunID.
// It wraps common.ErrNotFound when there is none.
func (s *Store) LatestRun(ctx context.Context, targetURL, excludeRunID string) (*Run, error) {
	query := `SELECT id, run_id, target_url, final_url, started_at, completed_at, status, output_dir,
		downloaded, failed, total_bytes, document, asset_urls
		FROM extraction_runs WHERE target_url = ? AND run_id != ?
		ORDER BY started_at DESC, id DESC LIMIT 1`

	var (
		run       Run
		finalURL  sql.NullString
		outputDir sql.NullString
		document  sql.NullString
		assetURLs sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, targetURL, excludeRunID).Scan(
		&run.ID, &run.RunID, &run.TargetURL, &finalURL, &run.StartedAt, &run.CompletedAt, &run.Status, &outputDir,
		&run.Downloaded, &run.Failed, &run.TotalBytes, &document, &assetURLs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.WrapErrorf(common.ErrNotFound, "no previous run for %s", targetURL)
		}
		return nil, fmt.Errorf("failed to query previous run for %s: %w", targetURL, err)
	}

	run.FinalURL = finalURL.String
	run.OutputDir = outputDir.String
	run.Document = document.String
	if assetURLs.String != "" {
		run.AssetURLs = strings.Split(assetURLs.String, "\n")
	}
	return &run, nil
}
