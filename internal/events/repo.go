package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/dbx"
)

const eventColumns = `id, event_id, title, description, start_time, end_time, location,
	location_lat, location_lng, radius_meters, secret_code, secret_code_enabled, qr_mode_enabled,
	code_valid_from, code_valid_till, created_by, created_at`

// Repository persists events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		evt            Event
		lat, lng       sql.NullFloat64
		code           sql.NullString
		validFrom, til sql.NullTime
	)
	if err := row.Scan(&evt.ID, &evt.EventID, &evt.Title, &evt.Description, &evt.StartTime, &evt.EndTime,
		&evt.Location, &lat, &lng, &evt.RadiusMeters, &code, &evt.SecretCodeEnabled, &evt.QRModeEnabled,
		&validFrom, &til, &evt.CreatedBy, &evt.CreatedAt); err != nil {
		return nil, err
	}
	if lat.Valid {
		evt.LocationLat = &lat.Float64
	}
	if lng.Valid {
		evt.LocationLng = &lng.Float64
	}
	evt.SecretCode = code.String
	if validFrom.Valid {
		evt.CodeValidFrom = &validFrom.Time
	}
	if til.Valid {
		evt.CodeValidTill = &til.Time
	}
	return &evt, nil
}

func (r *Repository) one(ctx context.Context, where string, arg any) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE `+where, arg)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return evt, nil
}

func (r *Repository) many(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *evt)
	}
	return out, rows.Err()
}

// Insert writes a new event.
func (r *Repository) Insert(ctx context.Context, evt Event) error {
	var code sql.NullString
	if evt.SecretCode != "" {
		code = sql.NullString{String: evt.SecretCode, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, event_id, title, description, start_time, end_time, location,
			location_lat, location_lng, radius_meters, secret_code, secret_code_enabled, qr_mode_enabled,
			code_valid_from, code_valid_till, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, evt.ID, evt.EventID, evt.Title, evt.Description, evt.StartTime, evt.EndTime, evt.Location,
		evt.LocationLat, evt.LocationLng, evt.RadiusMeters, code, evt.SecretCodeEnabled, evt.QRModeEnabled,
		evt.CodeValidFrom, evt.CodeValidTill, evt.CreatedBy, evt.CreatedAt)
	return err
}

// ByEventID returns the event with the human-readable id, or nil.
func (r *Repository) ByEventID(ctx context.Context, eventID string) (*Event, error) {
	return r.one(ctx, `event_id = $1`, eventID)
}

// ByID returns the event with the storage id, or nil.
func (r *Repository) ByID(ctx context.Context, id string) (*Event, error) {
	return r.one(ctx, `id = $1`, id)
}

// BySecretCode returns the event the access code belongs to, or nil.
func (r *Repository) BySecretCode(ctx context.Context, code string) (*Event, error) {
	return r.one(ctx, `secret_code = $1`, code)
}

// ListByCreator returns events created by email, latest start first.
func (r *Repository) ListByCreator(ctx context.Context, email string) ([]Event, error) {
	return r.many(ctx, `SELECT `+eventColumns+` FROM events WHERE lower(created_by) = lower($1) ORDER BY start_time DESC`, email)
}

// ListActiveSince returns events whose end, start or code validity end is at or after since.
func (r *Repository) ListActiveSince(ctx context.Context, since time.Time, limit int) ([]Event, error) {
	return r.many(ctx, `SELECT `+eventColumns+` FROM events
		WHERE end_time >= $1 OR start_time >= $1 OR (code_valid_till IS NOT NULL AND code_valid_till >= $1)
		ORDER BY start_time ASC
		LIMIT $2`, since, limit)
}

// ListRecent returns the latest-starting events.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return r.many(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_time DESC LIMIT $1`, limit)
}

// ListAll returns every event, latest start first.
func (r *Repository) ListAll(ctx context.Context) ([]Event, error) {
	return r.many(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_time DESC`)
}

// Delete removes the event and every attendance row referencing any of its
// identifiers in one transaction. It returns the number of attendance rows removed.
func (r *Repository) Delete(ctx context.Context, evt Event) (int64, error) {
	var removed int64
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ids := evt.Identifiers()
		args := make([]any, len(ids))
		placeholders := ""
		for i, id := range ids {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE event_id IN (`+placeholders+`)`, args...)
		if err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		removed, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, evt.ID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	return removed, err
}
