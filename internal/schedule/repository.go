package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Repository persists registered schedules and schedule events so they
// survive a restart.
type Repository interface {
	// ListSchedules retrieves all schedules ordered by name.
	ListSchedules(ctx context.Context) ([]metadata.Schedule, error)

	// SaveSchedule inserts or replaces a schedule. A row holding the same
	// name under another ID is removed.
	SaveSchedule(ctx context.Context, s *metadata.Schedule) error

	// DeleteSchedule removes a schedule by ID. Deleting a missing schedule
	// is not an error.
	DeleteSchedule(ctx context.Context, id string) error

	// ListEvents retrieves all schedule events ordered by name.
	ListEvents(ctx context.Context) ([]metadata.ScheduleEvent, error)

	// SaveEvent inserts or replaces a schedule event.
	SaveEvent(ctx context.Context, e *metadata.ScheduleEvent) error

	// DeleteEvent removes a schedule event by ID. Deleting a missing event
	// is not an error.
	DeleteEvent(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository over the service database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListSchedules retrieves all persisted schedules.
func (r *SQLiteRepository) ListSchedules(ctx context.Context) ([]metadata.Schedule, error) {
	var out []metadata.Schedule
	err := r.query(ctx, "SELECT data FROM schedules ORDER BY name", func(data []byte) error {
		var s metadata.Schedule
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	return out, nil
}

// SaveSchedule inserts or replaces a schedule.
func (r *SQLiteRepository) SaveSchedule(ctx context.Context, s *metadata.Schedule) error {
	if s.ID == "" || s.Name == "" {
		return fmt.Errorf("%w: schedule needs an id and a name", ErrInvalidSchedule)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling schedule %s: %w", s.ID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE name = ? AND id != ?", s.Name, s.ID); err != nil {
		return fmt.Errorf("removing stale schedule %s: %w", s.Name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		s.ID, s.Name, string(data), now, now)
	if err != nil {
		return fmt.Errorf("saving schedule %s: %w", s.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schedule %s: %w", s.ID, err)
	}
	return nil
}

// DeleteSchedule removes a schedule by ID.
func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting schedule %s: %w", id, err)
	}
	return nil
}

// ListEvents retrieves all persisted schedule events.
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]metadata.ScheduleEvent, error) {
	var out []metadata.ScheduleEvent
	err := r.query(ctx, "SELECT data FROM schedule_events ORDER BY name", func(data []byte) error {
		var e metadata.ScheduleEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing schedule events: %w", err)
	}
	return out, nil
}

// SaveEvent inserts or replaces a schedule event.
func (r *SQLiteRepository) SaveEvent(ctx context.Context, e *metadata.ScheduleEvent) error {
	if e.ID == "" || e.Name == "" {
		return fmt.Errorf("%w: schedule event needs an id and a name", ErrInvalidSchedule)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling schedule event %s: %w", e.ID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedule_events (id, name, schedule, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			schedule = excluded.schedule,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		e.ID, e.Name, e.Schedule, string(data), now, now)
	if err != nil {
		return fmt.Errorf("saving schedule event %s: %w", e.ID, err)
	}
	return nil
}

// DeleteEvent removes a schedule event by ID.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedule_events WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting schedule event %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, decode func([]byte) error) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		if err := decode(data); err != nil {
			return fmt.Errorf("decoding row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}
