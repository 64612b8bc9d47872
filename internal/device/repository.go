package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Repository defines the persistence operations behind the Registry cache.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// ListDevices retrieves all cached devices ordered by name.
	ListDevices(ctx context.Context) ([]metadata.Device, error)

	// SaveDevice inserts or replaces a device. A stale row holding the same
	// name under another ID is removed.
	SaveDevice(ctx context.Context, d *metadata.Device) error

	// DeleteDevice removes a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	DeleteDevice(ctx context.Context, id string) error

	// ListProfiles retrieves all cached profiles ordered by name.
	ListProfiles(ctx context.Context) ([]metadata.Profile, error)

	// SaveProfile inserts or replaces a profile.
	SaveProfile(ctx context.Context, p *metadata.Profile) error

	// ListWatchers retrieves all cached provision watchers ordered by name.
	ListWatchers(ctx context.Context) ([]metadata.ProvisionWatcher, error)

	// SaveWatcher inserts or replaces a provision watcher.
	SaveWatcher(ctx context.Context, w *metadata.ProvisionWatcher) error

	// DeleteWatcher removes a provision watcher by ID.
	// Returns ErrWatcherNotFound if the watcher does not exist.
	DeleteWatcher(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
// Each row stores the registry document as JSON next to its lookup columns.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListDevices retrieves all cached devices.
func (r *SQLiteRepository) ListDevices(ctx context.Context) ([]metadata.Device, error) {
	var devices []metadata.Device
	err := r.queryDocuments(ctx, "SELECT data FROM devices ORDER BY name", func(data []byte) error {
		var d metadata.Device
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		devices = append(devices, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// SaveDevice inserts or replaces a device.
func (r *SQLiteRepository) SaveDevice(ctx context.Context, d *metadata.Device) error {
	if d.ID == "" || d.Name == "" {
		return ErrInvalidResource
	}
	if err := r.upsert(ctx, "devices", d.ID, d.Name, d.ProfileName, d); err != nil {
		return fmt.Errorf("saving device %s: %w", d.ID, err)
	}
	return nil
}

// DeleteDevice removes a device by ID.
func (r *SQLiteRepository) DeleteDevice(ctx context.Context, id string) error {
	return r.delete(ctx, "devices", id, ErrDeviceNotFound)
}

// ListProfiles retrieves all cached profiles.
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]metadata.Profile, error) {
	var profiles []metadata.Profile
	err := r.queryDocuments(ctx, "SELECT data FROM profiles ORDER BY name", func(data []byte) error {
		var p metadata.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// SaveProfile inserts or replaces a profile.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p *metadata.Profile) error {
	if p.ID == "" || p.Name == "" {
		return ErrInvalidResource
	}
	if err := r.upsert(ctx, "profiles", p.ID, p.Name, "", p); err != nil {
		return fmt.Errorf("saving profile %s: %w", p.ID, err)
	}
	return nil
}

// ListWatchers retrieves all cached provision watchers.
func (r *SQLiteRepository) ListWatchers(ctx context.Context) ([]metadata.ProvisionWatcher, error) {
	var watchers []metadata.ProvisionWatcher
	err := r.queryDocuments(ctx, "SELECT data FROM provision_watchers ORDER BY name", func(data []byte) error {
		var w metadata.ProvisionWatcher
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		watchers = append(watchers, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing provision watchers: %w", err)
	}
	return watchers, nil
}

// SaveWatcher inserts or replaces a provision watcher.
func (r *SQLiteRepository) SaveWatcher(ctx context.Context, w *metadata.ProvisionWatcher) error {
	if w.ID == "" || w.Name == "" {
		return ErrInvalidResource
	}
	if err := r.upsert(ctx, "provision_watchers", w.ID, w.Name, w.ProfileName, w); err != nil {
		return fmt.Errorf("saving provision watcher %s: %w", w.ID, err)
	}
	return nil
}

// DeleteWatcher removes a provision watcher by ID.
func (r *SQLiteRepository) DeleteWatcher(ctx context.Context, id string) error {
	return r.delete(ctx, "provision_watchers", id, ErrWatcherNotFound)
}

// upsert writes one document row in a transaction. table is always one of
// the package's own constants, never caller input.
func (r *SQLiteRepository) upsert(ctx context.Context, table, id, name, profile string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	// The registry may recreate a resource under a new ID with the old name.
	//nolint:gosec // table is a package constant
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE name = ? AND id != ?", name, id); err != nil {
		return fmt.Errorf("removing stale row: %w", err)
	}

	var query string
	var args []any
	if table == "profiles" {
		query = `
			INSERT INTO profiles (id, name, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				data = excluded.data,
				updated_at = excluded.updated_at`
		args = []any{id, name, string(data), now, now}
	} else {
		//nolint:gosec // table is a package constant
		query = `
			INSERT INTO ` + table + ` (id, name, profile, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				profile = excluded.profile,
				data = excluded.data,
				updated_at = excluded.updated_at`
		args = []any{id, name, profile, string(data), now, now}
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) delete(ctx context.Context, table, id string, notFound error) error {
	//nolint:gosec // table is a package constant
	result, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func (r *SQLiteRepository) queryDocuments(ctx context.Context, query string, decode func([]byte) error) error {
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

// isNotFound reports whether err is one of the package's not-found errors.
func isNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrWatcherNotFound)
}
