// Package store persists run metadata and per-instance results in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/slither/config"
	"github.com/pthm-cable/slither/sim"
)

// Store wraps a SQLite database holding experiment runs and their results.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// New creates a store for the given database path. Call Init before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Init opens the database and creates the schema if needed.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			config_yaml TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS results (
			run_id             TEXT NOT NULL REFERENCES runs(id),
			instance           TEXT NOT NULL,
			seed               INTEGER NOT NULL,
			ticks              INTEGER NOT NULL,
			duration_ms        INTEGER NOT NULL,
			reason             TEXT NOT NULL,
			snakes             INTEGER NOT NULL,
			segments           INTEGER NOT NULL,
			species            INTEGER NOT NULL,
			max_generation     INTEGER NOT NULL,
			max_mutations      INTEGER NOT NULL,
			total_energy       REAL NOT NULL,
			conservation_error REAL NOT NULL,
			PRIMARY KEY (run_id, instance)
		);
	`)
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

// RunRecord describes one experiment run.
type RunRecord struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	ConfigYAML string
}

// CreateRun registers a new run and returns its generated id.
func (s *Store) CreateRun(ctx context.Context, name string, cfg *config.Config) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, config_yaml)
		VALUES (?, ?, ?, ?)
	`, id, name, time.Now().UTC().Format(time.RFC3339), string(payload))
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveResult upserts the summary of one finished instance.
func (s *Store) SaveResult(ctx context.Context, runID string, result sim.Result) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO results (
			run_id, instance, seed, ticks, duration_ms, reason,
			snakes, segments, species, max_generation, max_mutations,
			total_energy, conservation_error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, instance) DO UPDATE SET
			seed = excluded.seed,
			ticks = excluded.ticks,
			duration_ms = excluded.duration_ms,
			reason = excluded.reason,
			snakes = excluded.snakes,
			segments = excluded.segments,
			species = excluded.species,
			max_generation = excluded.max_generation,
			max_mutations = excluded.max_mutations,
			total_energy = excluded.total_energy,
			conservation_error = excluded.conservation_error
	`,
		runID, result.Name, result.Seed, result.Steps, result.Duration.Milliseconds(), result.Reason,
		result.Final.Snakes, result.Final.Segments, result.Final.SpeciesCount,
		result.Final.MaxGeneration, result.Final.MaxMutations,
		result.Final.TotalEnergy, result.Final.ConservationError,
	)
	return err
}

// GetRun loads one run record.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RunRecord{}, false, err
	}

	var rec RunRecord
	var createdAt string
	err = db.QueryRowContext(ctx, `
		SELECT id, name, created_at, config_yaml FROM runs WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Name, &createdAt, &rec.ConfigYAML)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("parsing created_at of run %s: %w", id, err)
	}
	return rec, true, nil
}

// ResultRecord is one persisted instance summary.
type ResultRecord struct {
	RunID             string
	Instance          string
	Seed              int64
	Ticks             int64
	DurationMS        int64
	Reason            string
	Snakes            int
	Segments          int
	Species           int
	MaxGeneration     uint32
	MaxMutations      uint32
	TotalEnergy       float64
	ConservationError float64
}

// ListResults returns all instance summaries of a run, ordered by instance.
func (s *Store) ListResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, instance, seed, ticks, duration_ms, reason,
			snakes, segments, species, max_generation, max_mutations,
			total_energy, conservation_error
		FROM results WHERE run_id = ? ORDER BY instance
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var r ResultRecord
		if err := rows.Scan(
			&r.RunID, &r.Instance, &r.Seed, &r.Ticks, &r.DurationMS, &r.Reason,
			&r.Snakes, &r.Segments, &r.Species, &r.MaxGeneration, &r.MaxMutations,
			&r.TotalEnergy, &r.ConservationError,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
