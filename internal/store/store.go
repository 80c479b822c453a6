package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunKind identifies which engine produced a run.
type RunKind string

const (
	KindMonteCarlo RunKind = "monte_carlo"
	KindStress     RunKind = "stress"
)

// RunInfo is the listing view of a stored run. Headline is the success
// rate for Monte Carlo runs and the average resilience for stress runs.
type RunInfo struct {
	ID         string          `json:"id"`
	ScenarioID string          `json:"scenarioId"`
	Kind       RunKind         `json:"kind"`
	CreatedAt  time.Time       `json:"createdAt"`
	Headline   decimal.Decimal `json:"headline"`
}

// Run is a stored run with its payload decoded.
type Run struct {
	RunInfo
	Simulation *domain.SimulationResults `json:"simulation,omitempty"`
	Stress     []domain.StressTestResult `json:"stress,omitempty"`
}

// Store keeps Monte Carlo and stress results keyed by scenario id so
// earlier runs can be listed and compared.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT    NOT NULL UNIQUE,
	scenario_id TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	created_at  INTEGER NOT NULL,
	headline    TEXT    NOT NULL,
	payload     BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs (scenario_id, created_at DESC);
`

// Open opens or creates the run database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers; in-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db, logger: zerolog.Nop(), now: time.Now}, nil
}

// SetLogger sets the logger used for store diagnostics.
func (s *Store) SetLogger(l zerolog.Logger) {
	s.logger = l.With().Str("component", "store").Logger()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSimulation stores a Monte Carlo result and returns its run id.
func (s *Store) SaveSimulation(ctx context.Context, scenarioID string, res *domain.SimulationResults) (string, error) {
	if res == nil {
		return "", errors.New("save simulation: nil result")
	}
	return s.save(ctx, scenarioID, KindMonteCarlo, res.SuccessRate, res)
}

// SaveStress stores a stress batch and returns its run id.
func (s *Store) SaveStress(ctx context.Context, scenarioID string, results []domain.StressTestResult, summary domain.StressTestSummary) (string, error) {
	return s.save(ctx, scenarioID, KindStress, summary.AverageResilience, results)
}

func (s *Store) save(ctx context.Context, scenarioID string, kind RunKind, headline decimal.Decimal, payload any) (string, error) {
	if scenarioID == "" {
		return "", fmt.Errorf("save %s run: scenario id is required", kind)
	}
	blob, err := encode(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s run: %w", kind, err)
	}

	id := uuid.NewString()
	created := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario_id, kind, created_at, headline, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		id, scenarioID, string(kind), created.UnixNano(), headline.String(), blob)
	if err != nil {
		return "", fmt.Errorf("insert %s run: %w", kind, err)
	}

	s.logger.Debug().
		Str("run_id", id).
		Str("scenario_id", scenarioID).
		Str("kind", string(kind)).
		Int("bytes", len(blob)).
		Msg("run saved")
	return id, nil
}

// ListRuns returns the runs for scenarioID, newest first. limit <= 0
// returns every run.
func (s *Store) ListRuns(ctx context.Context, scenarioID string, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario_id, kind, created_at, headline FROM runs
		 WHERE scenario_id = ? ORDER BY created_at DESC, seq DESC LIMIT ?`,
		scenarioID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a run and decodes its payload.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario_id, kind, created_at, headline, payload FROM runs WHERE id = ?`, id)

	var (
		run      Run
		kind     string
		created  int64
		headline string
		blob     []byte
	)
	err := row.Scan(&run.ID, &run.ScenarioID, &kind, &created, &headline, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	run.Kind = RunKind(kind)
	run.CreatedAt = time.Unix(0, created).UTC()
	if run.Headline, err = decimal.NewFromString(headline); err != nil {
		return nil, fmt.Errorf("get run %s: bad headline: %w", id, err)
	}

	switch run.Kind {
	case KindMonteCarlo:
		run.Simulation = &domain.SimulationResults{}
		err = decode(blob, run.Simulation)
	case KindStress:
		err = decode(blob, &run.Stress)
	default:
		err = fmt.Errorf("unknown run kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (RunInfo, error) {
	var (
		info     RunInfo
		kind     string
		created  int64
		headline string
	)
	if err := row.Scan(&info.ID, &info.ScenarioID, &kind, &created, &headline); err != nil {
		return RunInfo{}, fmt.Errorf("scan run: %w", err)
	}
	info.Kind = RunKind(kind)
	info.CreatedAt = time.Unix(0, created).UTC()
	h, err := decimal.NewFromString(headline)
	if err != nil {
		return RunInfo{}, fmt.Errorf("scan run %s: bad headline: %w", info.ID, err)
	}
	info.Headline = h
	return info, nil
}

// Payloads reuse the json field names so stored blobs match the API shape.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
