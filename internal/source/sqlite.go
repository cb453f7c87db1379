package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/stageboard/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is a schedule source backed by a local SQLite database, standing
// in for the production spreadsheet.
type SQLite struct {
	db *sql.DB
}

var _ Source = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and runs
// migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode for concurrent readers alongside the single writer.
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS acts (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		scheduled_start TEXT NOT NULL,
		scheduled_end TEXT NOT NULL,
		actual_start TEXT,
		actual_end TEXT,
		notes TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the full schedule in running order.
func (s *SQLite) Load(ctx context.Context) ([]models.Act, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, scheduled_start, scheduled_end, actual_start, actual_end, notes
		FROM acts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query acts: %w", err)
	}
	defer rows.Close()

	var acts []models.Act
	for rows.Next() {
		var (
			act                  models.Act
			schedStart, schedEnd string
			actStart, actEnd     sql.NullString
			notes                sql.NullString
		)
		if err := rows.Scan(&act.Name, &schedStart, &schedEnd, &actStart, &actEnd, &notes); err != nil {
			return nil, fmt.Errorf("scan act: %w", err)
		}
		if act.ScheduledStart, err = parseTime(schedStart); err != nil {
			return nil, fmt.Errorf("act %q scheduled_start: %w", act.Name, err)
		}
		if act.ScheduledEnd, err = parseTime(schedEnd); err != nil {
			return nil, fmt.Errorf("act %q scheduled_end: %w", act.Name, err)
		}
		if act.ActualStart, err = parseNullTime(actStart); err != nil {
			return nil, fmt.Errorf("act %q actual_start: %w", act.Name, err)
		}
		if act.ActualEnd, err = parseNullTime(actEnd); err != nil {
			return nil, fmt.Errorf("act %q actual_end: %w", act.Name, err)
		}
		act.Notes = notes.String
		acts = append(acts, act)
	}
	return acts, rows.Err()
}

// WriteActual updates a single actual-time cell; nil clears it.
func (s *SQLite) WriteActual(ctx context.Context, act string, field Field, value *time.Time) error {
	var column string
	switch field {
	case FieldStart:
		column = "actual_start"
	case FieldEnd:
		column = "actual_end"
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	var v any
	if value != nil {
		v = value.Format(time.RFC3339)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE acts SET "+column+" = ? WHERE name = ?", v, act)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrActNotFound
	}
	return nil
}

// Seed inserts the given schedule if the acts table is empty. Returns true
// when the seed was applied.
func (s *SQLite) Seed(ctx context.Context, acts []models.Act) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM acts").Scan(&count); err != nil {
		return false, fmt.Errorf("count acts: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for i, act := range acts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO acts (position, name, scheduled_start, scheduled_end, actual_start, actual_end, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, act.Name,
			act.ScheduledStart.Format(time.RFC3339),
			act.ScheduledEnd.Format(time.RFC3339),
			formatNullTime(act.ActualStart),
			formatNullTime(act.ActualEnd),
			act.Notes,
		)
		if err != nil {
			return false, fmt.Errorf("insert act %q: %w", act.Name, err)
		}
	}
	return true, tx.Commit()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
