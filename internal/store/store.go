// Package store provides the SQLite-backed adherence ledger and decision
// journal for dosewatch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database. Nothing survives Close.
const MemoryDSN = ":memory:"

// ErrInvalidStatus indicates an adherence status other than taken or missed.
var ErrInvalidStatus = errors.New("invalid adherence status")

// Store provides access to the dosewatch SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the database named by dsn and runs migrations. An empty dsn
// means MemoryDSN.
func New(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}

	source := dsn
	if !isMemory(dsn) {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		source = dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func isMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS adherence (
		date TEXT NOT NULL,
		medicine_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK(status IN ('taken', 'missed')),
		dose_time TEXT,
		recorded_at DATETIME NOT NULL,
		PRIMARY KEY (date, medicine_id)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		medicine_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adherence_date ON adherence(date);
	CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Adherence Operations ---

// UpsertAdherence records an explicit outcome for (date, medicine). A later
// call for the same pair replaces the earlier status.
func (s *Store) UpsertAdherence(ctx context.Context, rec models.AdherenceRecord) error {
	if !rec.Status.Valid() {
		return ErrInvalidStatus
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO adherence (date, medicine_id, status, dose_time, recorded_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date, medicine_id) DO UPDATE SET
			status = excluded.status,
			dose_time = excluded.dose_time,
			recorded_at = excluded.recorded_at`,
		rec.Date, rec.MedicineID, rec.Status, nullString(rec.DoseTime), rec.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert adherence: %w", err)
	}
	return nil
}

// InsertAdherenceIfAbsent records an outcome only when no record exists for
// (date, medicine). It reports whether a row was written.
func (s *Store) InsertAdherenceIfAbsent(ctx context.Context, rec models.AdherenceRecord) (bool, error) {
	if !rec.Status.Valid() {
		return false, ErrInvalidStatus
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO adherence (date, medicine_id, status, dose_time, recorded_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date, medicine_id) DO NOTHING`,
		rec.Date, rec.MedicineID, rec.Status, nullString(rec.DoseTime), rec.RecordedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert adherence: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetAdherence returns the record for (date, medicine), or nil if none exists.
func (s *Store) GetAdherence(ctx context.Context, date, medicineID string) (*models.AdherenceRecord, error) {
	rec := &models.AdherenceRecord{}
	var doseTime sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT date, medicine_id, status, dose_time, recorded_at FROM adherence WHERE date = ? AND medicine_id = ?`,
		date, medicineID,
	).Scan(&rec.Date, &rec.MedicineID, &rec.Status, &doseTime, &rec.RecordedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query adherence: %w", err)
	}
	if doseTime.Valid {
		rec.DoseTime = doseTime.String
	}
	return rec, nil
}

// HasAdherence reports whether any record exists for (date, medicine).
func (s *Store) HasAdherence(ctx context.Context, date, medicineID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM adherence WHERE date = ? AND medicine_id = ?`,
		date, medicineID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count adherence: %w", err)
	}
	return n > 0, nil
}

// ListAdherence returns records with from <= date <= to, ordered by date then
// insertion. Empty bounds are open.
func (s *Store) ListAdherence(ctx context.Context, from, to string) ([]models.AdherenceRecord, error) {
	query := `SELECT date, medicine_id, status, dose_time, recorded_at FROM adherence`
	var conds []string
	var args []interface{}

	if from != "" {
		conds = append(conds, `date >= ?`)
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, `date <= ?`)
		args = append(args, to)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY date ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query adherence: %w", err)
	}
	defer rows.Close()

	var records []models.AdherenceRecord
	for rows.Next() {
		var rec models.AdherenceRecord
		var doseTime sql.NullString
		if err := rows.Scan(&rec.Date, &rec.MedicineID, &rec.Status, &doseTime, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan adherence: %w", err)
		}
		if doseTime.Valid {
			rec.DoseTime = doseTime.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// --- Decision Operations ---

// WriteDecision appends a decision record to the journal.
func (s *Store) WriteDecision(ctx context.Context, action, inputsHash, outcome, medicineID, details string) (*models.Decision, error) {
	d := &models.Decision{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		MedicineID: medicineID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, action, inputs_hash, outcome, medicine_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Action, d.InputsHash, d.Outcome, nullString(d.MedicineID), nullString(d.Details), d.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return d, nil
}

// ListDecisions returns the most recent decisions, newest first.
func (s *Store) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, medicine_id, details, timestamp FROM decisions ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		var medicineID, details sql.NullString
		if err := rows.Scan(&d.ID, &d.Action, &d.InputsHash, &d.Outcome, &medicineID, &details, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.MedicineID = medicineID.String
		d.Details = details.String
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
