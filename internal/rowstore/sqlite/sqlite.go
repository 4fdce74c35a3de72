// Package sqlite implements rowstore.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/platform/sqlitedb"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
)

const driverName = "sqlite"

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS medications (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	schedule_time   TEXT NOT NULL DEFAULT '00:00:00',
	last_taken_date TEXT NULL,
	created_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS health_metrics (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	type       TEXT NOT NULL,
	value      REAL NOT NULL,
	unit       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS health_metrics_type_created ON health_metrics (type, created_at);
CREATE TABLE IF NOT EXISTS moods (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	mood       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS notes_created ON notes (created_at);`

// Store is a rowstore.Store over the medications, health_metrics, moods and notes tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ rowstore.Store = (*Store)(nil)

// Open opens the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB ensures the schema exists on db.
func NewWithDB(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create row store schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// WithClock replaces the clock stamping created_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error { return s.db.Close() }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) stamp() string { return s.now().UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}

const medicationCols = `id, name, description, schedule_time, last_taken_date, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanMedication(r scanner) (model.Medication, error) {
	var (
		m       model.Medication
		last    sql.NullString
		created string
	)
	if err := r.Scan(&m.ID, &m.Name, &m.Description, &m.ScheduleTime, &last, &created); err != nil {
		return model.Medication{}, err
	}
	if last.Valid {
		v := last.String
		m.LastTakenDate = &v
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}

func (s *Store) ListMedications(ctx context.Context) (out []model.Medication, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMedications, err) }()
	rows, err := s.db.QueryContext(ctx, `SELECT `+medicationCols+` FROM medications ORDER BY schedule_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out = []model.Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) getMedication(ctx context.Context, id int64) (model.Medication, error) {
	m, err := scanMedication(s.db.QueryRowContext(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Medication{}, model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
	}
	return m, err
}

func (s *Store) InsertMedication(ctx context.Context, name, description, scheduleTime string) (m model.Medication, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMedications, err) }()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO medications (name, description, schedule_time, created_at) VALUES (?, ?, ?, ?)`,
		name, description, scheduleTime, s.stamp())
	if err != nil {
		return model.Medication{}, fmt.Errorf("insert medication: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Medication{}, err
	}
	return s.getMedication(ctx, id)
}

func (s *Store) UpdateMedication(ctx context.Context, id int64, upd model.MedicationUpdate) (m model.Medication, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMedications, err) }()
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *upd.Description)
	}
	if upd.ScheduleTime != nil {
		sets, args = append(sets, "schedule_time = ?"), append(args, *upd.ScheduleTime)
	}
	switch {
	case upd.ClearLastTaken:
		sets = append(sets, "last_taken_date = NULL")
	case upd.LastTakenDate != nil:
		sets, args = append(sets, "last_taken_date = ?"), append(args, *upd.LastTakenDate)
	}
	if len(sets) == 0 {
		return model.Medication{}, model.NewValidationError("medication", "no fields to update")
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE medications SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Medication{}, fmt.Errorf("update medication: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Medication{}, model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
	}
	return s.getMedication(ctx, id)
}

func (s *Store) DeleteMedication(ctx context.Context, id int64) (err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMedications, err) }()
	res, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
	}
	return nil
}

func (s *Store) ListMetrics(ctx context.Context, metricType string) (out []model.Metric, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMetrics, err) }()
	q := `SELECT id, type, value, unit, created_at FROM health_metrics`
	var args []any
	if metricType != "" {
		q += ` WHERE type = ?`
		args = append(args, metricType)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out = []model.Metric{}
	for rows.Next() {
		var (
			m       model.Metric
			created string
		)
		if err := rows.Scan(&m.ID, &m.Type, &m.Value, &m.Unit, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) InsertMetric(ctx context.Context, metricType string, value float64, unit string) (model.Metric, error) {
	rows, err := s.InsertMetrics(ctx, []model.NewMetric{{Type: metricType, Value: value, Unit: unit}})
	if err != nil {
		return model.Metric{}, err
	}
	return rows[0], nil
}

// InsertMetrics inserts the batch in one transaction.
func (s *Store) InsertMetrics(ctx context.Context, batch []model.NewMetric) (out []model.Metric, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMetrics, err) }()
	if len(batch) == 0 {
		return nil, model.NewValidationError("metrics", "empty batch")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created := s.stamp()
	for _, nm := range batch {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO health_metrics (type, value, unit, created_at) VALUES (?, ?, ?, ?)`,
			nm.Type, nm.Value, nm.Unit, created)
		if err != nil {
			return nil, fmt.Errorf("insert metric %s: %w", nm.Type, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, model.Metric{ID: id, Type: nm.Type, Value: nm.Value, Unit: nm.Unit, CreatedAt: parseTime(created)})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertMood(ctx context.Context, mood string) (e model.MoodEntry, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMoods, err) }()
	created := s.stamp()
	res, err := s.db.ExecContext(ctx, `INSERT INTO moods (mood, created_at) VALUES (?, ?)`, mood, created)
	if err != nil {
		return model.MoodEntry{}, fmt.Errorf("insert mood: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MoodEntry{}, err
	}
	return model.MoodEntry{ID: id, Mood: mood, CreatedAt: parseTime(created)}, nil
}

func (s *Store) ListMoods(ctx context.Context) (out []model.MoodEntry, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableMoods, err) }()
	rows, err := s.db.QueryContext(ctx, `SELECT id, mood, created_at FROM moods ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out = []model.MoodEntry{}
	for rows.Next() {
		var (
			e       model.MoodEntry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Mood, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanJournalNote(r scanner) (model.JournalNote, error) {
	var (
		n       model.JournalNote
		created string
	)
	if err := r.Scan(&n.ID, &n.Content, &created); err != nil {
		return model.JournalNote{}, err
	}
	n.CreatedAt = parseTime(created)
	return n, nil
}

func (s *Store) FindJournalNote(ctx context.Context, from, to time.Time) (n model.JournalNote, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableJournal, err) }()
	n, err = scanJournalNote(s.db.QueryRowContext(ctx,
		`SELECT id, content, created_at FROM notes WHERE created_at >= ? AND created_at < ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.JournalNote{}, model.NewNotFoundError("journal note", from.Format(time.RFC3339))
	}
	return n, err
}

func (s *Store) UpsertJournalNote(ctx context.Context, in model.JournalNote) (n model.JournalNote, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableJournal, err) }()
	var id int64
	if in.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO notes (content, created_at) VALUES (?, ?)`, in.Content, s.stamp())
		if err != nil {
			return model.JournalNote{}, fmt.Errorf("insert journal note: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return model.JournalNote{}, err
		}
	} else {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO notes (id, content, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET content = excluded.content`,
			in.ID, in.Content, s.stamp())
		if err != nil {
			return model.JournalNote{}, fmt.Errorf("upsert journal note: %w", err)
		}
		id = in.ID
	}
	return scanJournalNote(s.db.QueryRowContext(ctx, `SELECT id, content, created_at FROM notes WHERE id = ?`, id))
}

func (s *Store) ListJournalNotes(ctx context.Context) (out []model.JournalNote, err error) {
	defer func() { rowstore.Observe(driverName, rowstore.TableJournal, err) }()
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, created_at FROM notes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out = []model.JournalNote{}
	for rows.Next() {
		n, err := scanJournalNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
