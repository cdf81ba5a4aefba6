package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smartorder/internal/logger"
	"smartorder/internal/types"

	_ "modernc.org/sqlite"
)

// Record is one append-only decision trace entry: the request, the chosen
// strategy, and the full explanation trail at the moment of the decision.
type Record struct {
	ID           int64              `json:"id"`
	Timestamp    int64              `json:"ts"`
	TicketID     string             `json:"ticket_id,omitempty"`
	ClientID     string             `json:"client_id"`
	Symbol       string             `json:"symbol"`
	Side         string             `json:"side"`
	OrderSize    int64              `json:"order_size"`
	TimeToClose  int                `json:"time_to_close"`
	Notes        string             `json:"notes,omitempty"`
	AlgoType     string             `json:"algo_type"`
	OrderType    string             `json:"order_type"`
	Urgency      string             `json:"urgency"`
	FatFinger    bool               `json:"fat_finger"`
	Explanations []string           `json:"explanations"`
	Flags        types.ContextFlags `json:"context_flags"`
	Error        string             `json:"error,omitempty"`
}

// Store keeps the decision audit trail in its own SQLite file, separate from
// the ticket database so trace writes never contend with ticket queries.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the audit database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying DB.
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

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decision_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			ticket_id TEXT,
			client_id TEXT,
			symbol TEXT,
			side TEXT,
			order_size INTEGER,
			time_to_close INTEGER,
			notes TEXT,
			algo_type TEXT,
			order_type TEXT,
			urgency TEXT,
			fat_finger INTEGER,
			explanations_json TEXT,
			flags_json TEXT,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_decision_audit_ts_id ON decision_audit(ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_decision_audit_client_ts ON decision_audit(client_id, ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("audit schema init failed: %w", err)
		}
	}
	return nil
}

// Append writes one trace entry. A zero timestamp gets the current time.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("audit log store not initialized")
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	explanations, err := json.Marshal(rec.Explanations)
	if err != nil {
		return err
	}
	flags, err := json.Marshal(rec.Flags)
	if err != nil {
		return err
	}
	fatFinger := 0
	if rec.FatFinger {
		fatFinger = 1
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO decision_audit
		(ts, ticket_id, client_id, symbol, side, order_size, time_to_close, notes,
		 algo_type, order_type, urgency, fat_finger, explanations_json, flags_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.TicketID, rec.ClientID, strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		rec.Side, rec.OrderSize, rec.TimeToClose, rec.Notes,
		rec.AlgoType, rec.OrderType, rec.Urgency, fatFinger,
		string(explanations), string(flags), rec.Error)
	return err
}

// Recent returns the newest entries, optionally filtered by client.
func (s *Store) Recent(ctx context.Context, clientID string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("audit log store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, ts, ticket_id, client_id, symbol, side, order_size, time_to_close,
		notes, algo_type, order_type, urgency, fat_finger, explanations_json, flags_json, error
		FROM decision_audit`
	args := []any{}
	if client := strings.TrimSpace(clientID); client != "" {
		query += ` WHERE client_id = ?`
		args = append(args, client)
	}
	query += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var fatFinger int
		var explanations, flags string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.TicketID, &rec.ClientID, &rec.Symbol,
			&rec.Side, &rec.OrderSize, &rec.TimeToClose, &rec.Notes, &rec.AlgoType,
			&rec.OrderType, &rec.Urgency, &fatFinger, &explanations, &flags, &rec.Error); err != nil {
			return nil, err
		}
		rec.FatFinger = fatFinger != 0
		if explanations != "" {
			if err := json.Unmarshal([]byte(explanations), &rec.Explanations); err != nil {
				logger.Warnf("audit entry %d: explanations decode failed: %v", rec.ID, err)
			}
		}
		if flags != "" {
			if err := json.Unmarshal([]byte(flags), &rec.Flags); err != nil {
				logger.Warnf("audit entry %d: context flags decode failed: %v", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
