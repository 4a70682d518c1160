package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rotorgo/pkg/db"
	"rotorgo/pkg/model"
	"rotorgo/pkg/rotator"
)

// Store defines the repository interface.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	QSOStore
	CommandStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- QSO ---

const qsoColumns = `id, call, grid, band, mode, freq_mhz, lat, lon, has_position, qso_time, fields, imported_at`

// SaveQSO inserts a QSO, ignoring duplicates of (call, time, band, mode).
// It reports whether a row was inserted and sets q.ID when it was.
func (s *SQLiteStore) SaveQSO(ctx context.Context, q *model.QSO) (bool, error) {
	return saveQSO(ctx, s.db, q)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveQSO(ctx context.Context, ex execer, q *model.QSO) (bool, error) {
	var fields []byte
	if len(q.Fields) > 0 {
		var err error
		if fields, err = json.Marshal(q.Fields); err != nil {
			return false, fmt.Errorf("failed to encode fields: %w", err)
		}
	}
	if q.ImportedAt.IsZero() {
		q.ImportedAt = time.Now()
	}

	res, err := ex.ExecContext(ctx,
		`INSERT OR IGNORE INTO qso (call, grid, band, mode, freq_mhz, lat, lon, has_position, qso_time, fields, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Call, q.Grid, q.Band, q.Mode, q.FreqMHz, q.Lat, q.Lon, q.HasPosition,
		q.Time.UTC(), string(fields), q.ImportedAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	if id, err := res.LastInsertId(); err == nil {
		q.ID = id
	}
	return true, nil
}

// SaveQSOs inserts a batch in one transaction and returns how many were new.
func (s *SQLiteStore) SaveQSOs(ctx context.Context, qs []*model.QSO) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for i, q := range qs {
		ok, err := saveQSO(ctx, tx, q)
		if err != nil {
			return 0, fmt.Errorf("failed to save qso %d (%s): %w", i, q.Call, err)
		}
		if ok {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetQSO returns the QSO with id, or nil if not found.
func (s *SQLiteStore) GetQSO(ctx context.Context, id int64) (*model.QSO, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+qsoColumns+` FROM qso WHERE id = ?`, id)
	q, err := scanQSO(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	return q, err
}

// RecentQSOs returns up to limit QSOs, newest contact first.
func (s *SQLiteStore) RecentQSOs(ctx context.Context, limit int) ([]*model.QSO, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+qsoColumns+` FROM qso ORDER BY qso_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.QSO
	for rows.Next() {
		q, err := scanQSO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CountQSOs returns the number of stored QSOs.
func (s *SQLiteStore) CountQSOs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM qso").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQSO(sc scanner) (*model.QSO, error) {
	var q model.QSO
	var grid, band, mode, fields sql.NullString
	var qsoTime, importedAt sql.NullTime

	if err := sc.Scan(&q.ID, &q.Call, &grid, &band, &mode, &q.FreqMHz, &q.Lat, &q.Lon,
		&q.HasPosition, &qsoTime, &fields, &importedAt); err != nil {
		return nil, err
	}
	q.Grid, q.Band, q.Mode = grid.String, band.String, mode.String
	if qsoTime.Valid {
		q.Time = qsoTime.Time.UTC()
	}
	if importedAt.Valid {
		q.ImportedAt = importedAt.Time.UTC()
	}
	if fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &q.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields for qso %d: %w", q.ID, err)
		}
	}
	return &q, nil
}

// --- Rotator commands ---

// RecordCommand implements rotator.CommandRecorder.
func (s *SQLiteStore) RecordCommand(ctx context.Context, rec *rotator.CommandRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rotator_commands (id, bearing, source, issued_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Bearing, rec.Source, rec.IssuedAt.UTC())
	return err
}

// RecentCommands returns up to limit commands, newest first.
func (s *SQLiteStore) RecentCommands(ctx context.Context, limit int) ([]*rotator.CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bearing, source, issued_at FROM rotator_commands ORDER BY issued_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*rotator.CommandRecord
	for rows.Next() {
		var r rotator.CommandRecord
		var source sql.NullString
		if err := rows.Scan(&r.ID, &r.Bearing, &source, &r.IssuedAt); err != nil {
			return nil, err
		}
		r.Source = source.String
		r.IssuedAt = r.IssuedAt.UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// PruneCommands removes history older than olderThan.
func (s *SQLiteStore) PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.db.PruneCommands(olderThan)
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
