// Package archive records comparison runs and their point pairs in a SQLite
// database so results can be compared across sessions.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/spherecompare/internal/geometry"
	"github.com/banshee-data/spherecompare/internal/monitoring"
	"github.com/banshee-data/spherecompare/internal/timeutil"
	"github.com/banshee-data/spherecompare/internal/units"
)

// ErrRunNotFound is returned by Run when no run has the requested ID.
var ErrRunNotFound = errors.New("comparison run not found")

// Run describes one recorded comparison. Unit names the length unit of the
// summary and of the stored pairs; it defaults to cm.
type Run struct {
	ID        string
	InputPath string
	Title     string
	Unit      string
	Summary   geometry.Summary
	CreatedAt time.Time
}

// PairRecord is a stored pair with the distance between its points.
type PairRecord struct {
	Index    int
	Test     geometry.Point
	Real     geometry.Point
	Distance float64
}

// Store is a SQLite-backed archive of comparison runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp runs without a CreatedAt.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens or creates the archive at path and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive %s: %w", path, err)
	}
	monitoring.Debugf("archive %s ready", path)

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (uint, error) {
	version, dirty, err := schemaVersion(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("archive schema version %d is dirty", version)
	}
	return version, nil
}

// RecordRun stores run and its pairs in one transaction and returns the
// run ID. A new UUID is assigned when run.ID is empty.
func (s *Store) RecordRun(ctx context.Context, run Run, pairs []geometry.Pair) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now()
	}
	if run.Unit == "" {
		run.Unit = units.CM
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO comparison_runs (
			run_id, input_path, title, unit, pair_count,
			mean_error, stddev_error, rms_error, max_error, max_error_index,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.Title, run.Unit, len(pairs),
		sum.MeanError, sum.StdDevError, sum.RMSError, sum.MaxError, sum.MaxErrorIndex,
		run.CreatedAt.UnixNano(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comparison_pairs (
			run_id, pair_index, test_x, test_y, test_z, real_x, real_y, real_z, distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare pair insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		dist := r3.Norm(r3.Sub(p.Test.Vec(), p.Real.Vec()))
		if _, err := stmt.ExecContext(ctx,
			run.ID, p.Index,
			p.Test.X, p.Test.Y, p.Test.Z,
			p.Real.X, p.Real.Y, p.Real.Z,
			dist,
		); err != nil {
			return "", fmt.Errorf("insert pair %d: %w", p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	monitoring.Logf("archived run %s (%d pairs)", run.ID, len(pairs))
	return run.ID, nil
}

const runColumns = `run_id, input_path, title, unit, pair_count,
	mean_error, stddev_error, rms_error, max_error, max_error_index, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r         Run
		createdAt int64
	)
	err := row.Scan(&r.ID, &r.InputPath, &r.Title, &r.Unit, &r.Summary.Count,
		&r.Summary.MeanError, &r.Summary.StdDevError, &r.Summary.RMSError,
		&r.Summary.MaxError, &r.Summary.MaxErrorIndex, &createdAt)
	if err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(0, createdAt)
	return r, nil
}

// Run returns the run with the given ID.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM comparison_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM comparison_runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Pairs returns the stored pairs of a run ordered by index.
func (s *Store) Pairs(ctx context.Context, runID string) ([]PairRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pair_index, test_x, test_y, test_z, real_x, real_y, real_z, distance
		FROM comparison_pairs
		WHERE run_id = ?
		ORDER BY pair_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []PairRecord
	for rows.Next() {
		var p PairRecord
		if err := rows.Scan(&p.Index,
			&p.Test.X, &p.Test.Y, &p.Test.Z,
			&p.Real.X, &p.Real.Y, &p.Real.Z,
			&p.Distance); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
