// Package store persists served responses so proof hashes can be audited later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	id            TEXT PRIMARY KEY,
	statement_id  TEXT,
	statement     TEXT NOT NULL,
	end_date      TEXT,
	resolution    TEXT NOT NULL,
	confidence    REAL NOT NULL,
	outcome       TEXT NOT NULL,
	proof_hash    TEXT NOT NULL,
	elapsed_ms    INTEGER NOT NULL,
	response_json TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_statement_id ON responses(statement_id);
CREATE INDEX IF NOT EXISTS idx_responses_proof_hash ON responses(proof_hash);
`

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("record not found")

// Record is one served response
type Record struct {
	ID          string
	StatementID string
	Statement   string
	EndDate     string
	Outcome     dispatch.Outcome
	Elapsed     time.Duration
	Response    model.MinerResponse
	CreatedAt   time.Time
}

// History stores served responses in SQLite
type History struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens the database at path and runs migrations
func Open(path string, logger *slog.Logger) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &History{db: db, log: logger, now: time.Now}, nil
}

// Close closes the underlying database connection
func (h *History) Close() error {
	return h.db.Close()
}

// Insert stores a response and returns the new record id
func (h *History) Insert(ctx context.Context, st model.Statement, resp *model.MinerResponse, outcome dispatch.Outcome, elapsed time.Duration) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("marshal response: %w", err)
	}

	id := uuid.New().String()
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO responses (id, statement_id, statement, end_date, resolution, confidence, outcome, proof_hash, elapsed_ms, response_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullable(st.ID), st.Statement, st.EndDate, string(resp.Resolution), resp.Confidence,
		string(outcome), resp.ProofHash, elapsed.Milliseconds(), string(raw),
		h.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert response: %w", err)
	}
	return id, nil
}

// Record implements dispatch.Recorder. Failures are logged, never returned.
func (h *History) Record(ctx context.Context, st model.Statement, resp *model.MinerResponse, outcome dispatch.Outcome, elapsed time.Duration) {
	if _, err := h.Insert(ctx, st, resp, outcome, elapsed); err != nil {
		h.log.Warn("failed to record response", "error", err)
	}
}

const selectColumns = `SELECT id, statement_id, statement, end_date, outcome, elapsed_ms, response_json, created_at FROM responses`

// Get returns the record with the given id
func (h *History) Get(ctx context.Context, id string) (*Record, error) {
	row := h.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// FindByProofHash returns the record that served proofHash
func (h *History) FindByProofHash(ctx context.Context, proofHash string) (*Record, error) {
	row := h.db.QueryRowContext(ctx, selectColumns+` WHERE proof_hash = ? ORDER BY created_at DESC LIMIT 1`, proofHash)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proof hash %s: %w", proofHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("proof hash %s: %w", proofHash, err)
	}
	return rec, nil
}

// Recent returns the most recent records, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// CountByResolution returns how many responses carried each resolution
func (h *History) CountByResolution(ctx context.Context) (map[model.Resolution]int, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT resolution, COUNT(*) FROM responses GROUP BY resolution`)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Resolution]int)
	for rows.Next() {
		var resolution string
		var n int
		if err := rows.Scan(&resolution, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[model.Resolution(resolution)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var statementID, endDate sql.NullString
	var outcome, responseJSON, createdStr string
	var elapsedMS int64

	if err := row.Scan(&rec.ID, &statementID, &rec.Statement, &endDate, &outcome, &elapsedMS, &responseJSON, &createdStr); err != nil {
		return nil, err
	}

	rec.StatementID = statementID.String
	rec.EndDate = endDate.String
	rec.Outcome = dispatch.Outcome(outcome)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if err := json.Unmarshal([]byte(responseJSON), &rec.Response); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
