// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog journals completed workflow runs to a SQLite database
// so past answers and their audit verdicts can be reviewed. The journal
// is append-only from the engine's point of view; entries are never
// mutated after Record.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/internal/workflow"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Entry is one journaled run.
type Entry struct {
	RunID         string
	Query         string
	Draft         string
	State         string
	IsSafe        bool
	SafetyIssues  []types.SafetyIssue
	SourcesUsed   []string
	Warnings      []string
	RevisionCount int
	ElapsedMs     int64
	CreatedAt     time.Time
}

// Store manages the run journal SQLite database.
type Store struct {
	db      *sql.DB
	maxList int
}

// NewStore opens or creates the journal database at cfg.Path, creating
// the schema if it does not exist.
func NewStore(cfg types.RunLogConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxList := cfg.MaxList
	if maxList <= 0 {
		maxList = 20
	}

	s := &Store{db: db, maxList: maxList}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			draft TEXT,
			state TEXT NOT NULL,
			is_safe INTEGER NOT NULL,
			safety_issues TEXT,
			sources_used TEXT,
			warnings TEXT,
			revision_count INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record journals one completed run.
func (s *Store) Record(ctx context.Context, query string, result workflow.Result) error {
	issuesJSON, _ := json.Marshal(result.SafetyIssues)
	sourcesJSON, _ := json.Marshal(result.SourcesUsed)
	warningsJSON, _ := json.Marshal(result.Warnings)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, draft, state, is_safe, safety_issues, sources_used,
			warnings, revision_count, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, query, result.Draft, string(result.State), boolToInt(result.IsSafe),
		string(issuesJSON), string(sourcesJSON), string(warningsJSON),
		result.RevisionCount, result.ElapsedMs,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", result.RunID, err)
	}
	return nil
}

// List returns the most recent entries, newest first. A non-positive
// limit uses the configured default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxList
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, draft, state, is_safe, safety_issues, sources_used,
			warnings, revision_count, elapsed_ms, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one entry by run ID. sql.ErrNoRows wraps through when the
// run is unknown.
func (s *Store) Get(ctx context.Context, runID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, draft, state, is_safe, safety_issues, sources_used,
			warnings, revision_count, elapsed_ms, created_at
		 FROM runs WHERE id = ?`, runID)
	e, err := scanEntry(row.Scan)
	if err != nil {
		return Entry{}, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return e, nil
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var e Entry
	var isSafe int
	var issuesJSON, sourcesJSON, warningsJSON, createdAt string

	if err := scan(&e.RunID, &e.Query, &e.Draft, &e.State, &isSafe,
		&issuesJSON, &sourcesJSON, &warningsJSON,
		&e.RevisionCount, &e.ElapsedMs, &createdAt); err != nil {
		return Entry{}, err
	}

	e.IsSafe = isSafe != 0
	// Journal rows are written by Record; parse failures here mean a
	// corrupted database, not bad input.
	_ = json.Unmarshal([]byte(issuesJSON), &e.SafetyIssues)
	_ = json.Unmarshal([]byte(sourcesJSON), &e.SourcesUsed)
	_ = json.Unmarshal([]byte(warningsJSON), &e.Warnings)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
