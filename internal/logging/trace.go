package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS trace_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id    TEXT NOT NULL,
	step       TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trace_turn ON trace_log(turn_id, id);
`

// #endregion schema

// #region turn-context
type turnKey struct{}

// NewTurnID returns a fresh turn identifier.
func NewTurnID() string {
	return uuid.New().String()
}

// WithTurnID attaches a turn ID to ctx.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnKey{}, turnID)
}

// TurnIDFrom returns the turn ID carried by ctx, or "".
func TurnIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(turnKey{}).(string)
	return id
}

// #endregion turn-context

// #region store-struct
// TraceStore keeps the decision trace of the running process in an
// in-memory SQLite database. Nothing outlives the process.
type TraceStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTraceStore opens the in-memory database and creates the schema.
func NewTraceStore(logger *zap.Logger) (*TraceStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &TraceStore{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *TraceStore) Close() error {
	return s.db.Close()
}

// #endregion store-struct

// #region append
// Append writes one trace row.
func (s *TraceStore) Append(ctx context.Context, entry TraceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trace_log (turn_id, step, detail, created_at) VALUES (?, ?, ?, ?)`,
		entry.TurnID,
		entry.Step,
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append trace: %w", err)
	}
	return nil
}

// Record appends a row for the turn carried by ctx. Failures are logged,
// never returned: tracing must not break a turn.
func (s *TraceStore) Record(ctx context.Context, step, detail string) {
	turnID := TurnIDFrom(ctx)
	if turnID == "" {
		turnID = "unscoped"
	}
	// The turn context may already be cancelled; the row is still wanted.
	if err := s.Append(context.WithoutCancel(ctx), TraceEntry{TurnID: turnID, Step: step, Detail: detail}); err != nil {
		s.logger.Warn("trace write failed", zap.String("turn_id", turnID), zap.String("step", step), zap.Error(err))
	}
}

// RecordTurn stores the turn summary as a JSON "turn_summary" row.
func (s *TraceStore) RecordTurn(ctx context.Context, rec TurnRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal turn record: %w", err)
	}
	return s.Append(context.WithoutCancel(ctx), TraceEntry{TurnID: rec.TurnID, Step: "turn_summary", Detail: string(data)})
}

// #endregion append

// #region query
// Turn returns the rows of one turn in insertion order.
func (s *TraceStore) Turn(ctx context.Context, turnID string) ([]TraceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn_id, step, COALESCE(detail, ''), created_at FROM trace_log WHERE turn_id = ? ORDER BY id`,
		turnID,
	)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var entries []TraceEntry
	for rows.Next() {
		var e TraceEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TurnID, &e.Step, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastTurnID returns the turn of the newest row, or "" when empty.
func (s *TraceStore) LastTurnID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT turn_id FROM trace_log ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last turn: %w", err)
	}
	return id, nil
}

// TurnSummary decodes the turn_summary row of a turn.
func (s *TraceStore) TurnSummary(ctx context.Context, turnID string) (TurnRecord, bool, error) {
	var detail string
	err := s.db.QueryRowContext(ctx,
		`SELECT detail FROM trace_log WHERE turn_id = ? AND step = 'turn_summary' ORDER BY id DESC LIMIT 1`,
		turnID,
	).Scan(&detail)
	if err == sql.ErrNoRows {
		return TurnRecord{}, false, nil
	}
	if err != nil {
		return TurnRecord{}, false, fmt.Errorf("turn summary: %w", err)
	}
	var rec TurnRecord
	if err := json.Unmarshal([]byte(detail), &rec); err != nil {
		return TurnRecord{}, false, fmt.Errorf("decode turn summary: %w", err)
	}
	return rec, true, nil
}

// Count returns the number of rows.
func (s *TraceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trace_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trace: %w", err)
	}
	return n, nil
}

// #endregion query

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
