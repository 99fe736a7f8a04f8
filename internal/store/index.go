// Package store keeps the title catalog and the participation index in a
// SQLite database so very large datasets can be reported on without
// reparsing the text files on every run.
//
// Usage Example:
//
//	idx, _ := store.Open("data/collab.db", logger)
//	defer idx.Close()
//	_ = idx.Import(ctx, titles, participations, store.BuildInfo{Layout: "person"})
//	title, ok := idx.Title("123")
//	works := idx.Works("5")
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"collab/internal/dataset"
	"collab/internal/logging"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// TitleSource is satisfied by *dataset.TitleCatalog.
type TitleSource interface {
	Each(fn func(id, title string))
}

// ParticipationSource is satisfied by *dataset.ParticipationIndex.
type ParticipationSource interface {
	Each(fn func(person string, works []string))
}

// BuildInfo is recorded alongside the data by Import.
type BuildInfo struct {
	Layout     string
	WorkPrefix string
}

// Stats summarizes the index contents.
type Stats struct {
	Titles         int
	People         int
	Participations int
}

// Index is a SQLite-backed title catalog and participation index.
type Index struct {
	db   *sql.DB
	path string
	log  *zap.Logger

	mu  sync.Mutex
	err error // first lookup failure, see Err
}

// Open opens (creating if needed) the index database at path.
func Open(path string, logger *zap.Logger) (*Index, error) {
	log := logging.For(logger, logging.CategoryStore)
	timer := logging.StartTimer(log, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	idx := &Index{db: db, path: path, log: log}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("index opened", zap.String("path", path))
	return idx, nil
}

// OpenExisting opens a previously built index read-only. A missing file is
// reported as dataset.ErrNotFound, like a missing text input. A file that is
// not an index built by Import is reported as dataset.ErrIO and left
// untouched.
func OpenExisting(path string, logger *zap.Logger) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		kind := dataset.ErrIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = dataset.ErrNotFound
		}
		return nil, &dataset.LoadError{Path: path, Kind: kind, Err: err}
	}

	log := logging.For(logger, logging.CategoryStore)
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &dataset.LoadError{Path: path, Kind: dataset.ErrIO, Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}

	idx := &Index{db: db, path: path, log: log}
	meta, err := idx.Meta()
	if err == nil && len(meta) == 0 {
		err = errors.New("no build information recorded")
	}
	if err != nil {
		db.Close()
		return nil, &dataset.LoadError{Path: path, Kind: dataset.ErrIO, Err: fmt.Errorf("not a collab index: %w", err)}
	}

	log.Info("index opened",
		zap.String("path", path),
		zap.String("layout", meta["layout"]),
		zap.String("built_at", meta["built_at"]))
	return idx, nil
}

// initialize creates the required tables.
func (s *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS titles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participations (
		person TEXT NOT NULL,
		work TEXT NOT NULL,
		PRIMARY KEY(person, work)
	);
	CREATE INDEX IF NOT EXISTS idx_participations_work ON participations(work);

	-- people with no works still exist in the index
	CREATE TABLE IF NOT EXISTS people (
		person TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Index) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Index) Path() string {
	return s.path
}

// Import replaces the index contents with titles and participations in a
// single transaction.
func (s *Index) Import(ctx context.Context, titles TitleSource, parts ParticipationSource, info BuildInfo) error {
	timer := logging.StartTimer(s.log, "Import")
	defer timer.Stop()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"titles", "participations", "people", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	titleStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO titles (id, title) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare titles insert: %w", err)
	}
	defer titleStmt.Close()

	var insertErr error
	titles.Each(func(id, title string) {
		if insertErr != nil {
			return
		}
		if _, err := titleStmt.ExecContext(ctx, id, title); err != nil {
			insertErr = fmt.Errorf("insert title %s: %w", id, err)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	personStmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO people (person) VALUES (?)")
	if err != nil {
		return fmt.Errorf("prepare people insert: %w", err)
	}
	defer personStmt.Close()
	workStmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO participations (person, work) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare participations insert: %w", err)
	}
	defer workStmt.Close()

	parts.Each(func(person string, works []string) {
		if insertErr != nil {
			return
		}
		if _, err := personStmt.ExecContext(ctx, person); err != nil {
			insertErr = fmt.Errorf("insert person %s: %w", person, err)
			return
		}
		for _, work := range works {
			if _, err := workStmt.ExecContext(ctx, person, work); err != nil {
				insertErr = fmt.Errorf("insert participation %s/%s: %w", person, work, err)
				return
			}
		}
	})
	if insertErr != nil {
		return insertErr
	}

	meta := map[string]string{
		"layout":      info.Layout,
		"work_prefix": info.WorkPrefix,
		"built_at":    time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.log.Info("index imported", zap.String("path", s.path))
	return nil
}

// Title returns the title for a canonical work id. A query failure is
// recorded for Err and reads as a missing title.
func (s *Index) Title(id string) (string, bool) {
	var title string
	err := s.db.QueryRow("SELECT title FROM titles WHERE id = ?", id).Scan(&title)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.fail(fmt.Errorf("title lookup %s: %w", id, err))
		}
		return "", false
	}
	return title, true
}

// Works returns the works of person. A query failure is recorded for Err and
// reads as an unknown person.
func (s *Index) Works(person string) []string {
	rows, err := s.db.Query("SELECT work FROM participations WHERE person = ?", person)
	if err != nil {
		s.fail(fmt.Errorf("works lookup %s: %w", person, err))
		return nil
	}
	defer rows.Close()

	var works []string
	for rows.Next() {
		var work string
		if err := rows.Scan(&work); err != nil {
			s.fail(fmt.Errorf("works scan %s: %w", person, err))
			return nil
		}
		works = append(works, work)
	}
	if err := rows.Err(); err != nil {
		s.fail(fmt.Errorf("works iteration %s: %w", person, err))
		return nil
	}
	return works
}

func (s *Index) fail(err error) {
	s.log.Warn("index lookup failed", zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first lookup failure as a dataset.ErrIO load error, or nil.
// Title and Works cannot return errors themselves, so callers check Err once
// they are done reading.
func (s *Index) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return &dataset.LoadError{Path: s.path, Kind: dataset.ErrIO, Err: s.err}
}

// Meta returns the build information recorded by the last Import.
func (s *Index) Meta() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// Stats returns row counts for the index tables.
func (s *Index) Stats() (Stats, error) {
	var st Stats
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM titles", &st.Titles},
		{"SELECT COUNT(*) FROM people", &st.People},
		{"SELECT COUNT(*) FROM participations", &st.Participations},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.sql).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("count rows: %w", err)
		}
	}
	return st, nil
}
