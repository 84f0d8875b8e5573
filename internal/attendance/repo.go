package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campusattend/internal/dbx"
)

// ErrDeviceConflict is returned by Insert when the device already has a
// record for the event.
var ErrDeviceConflict = errors.New("device already recorded for event")

const (
	eventDeviceKey = "attendance_event_device_key"
	recordColumns  = `id, event_id, student_email, student_name, usn, marked_at, lat, lng, device_id, method, marked_by, verified`
)

// Repository persists attendance in Postgres.
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

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec              Record
		lat, lng         sql.NullFloat64
		device, markedBy sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.EventID, &rec.StudentEmail, &rec.StudentName, &rec.USN, &rec.MarkedAt,
		&lat, &lng, &device, &rec.Method, &markedBy, &rec.Verified); err != nil {
		return nil, err
	}
	if lat.Valid {
		rec.Lat = &lat.Float64
	}
	if lng.Valid {
		rec.Lng = &lng.Float64
	}
	rec.DeviceID = device.String
	rec.MarkedBy = markedBy.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func inClause(start int, values []string) (string, []any) {
	ph := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		ph[i] = fmt.Sprintf("$%d", start+i)
		args[i] = v
	}
	return strings.Join(ph, ", "), args
}

// Insert stores rec unless a record for (event, student) exists. It reports
// whether a row was written. A clash on (event, device) yields ErrDeviceConflict.
func (r *Repository) Insert(ctx context.Context, rec Record) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, event_id, student_email, student_name, usn, marked_at, lat, lng, device_id, method, marked_by, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (event_id, student_email) DO NOTHING
		RETURNING id
	`, rec.ID, rec.EventID, rec.StudentEmail, rec.StudentName, rec.USN, rec.MarkedAt,
		rec.Lat, rec.Lng, nullString(rec.DeviceID), rec.Method, nullString(rec.MarkedBy), rec.Verified).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case dbx.IsUniqueViolation(err, eventDeviceKey):
		return false, ErrDeviceConflict
	default:
		return false, err
	}
}

// ByEventDevice returns the record the device produced for the event, or nil.
func (r *Repository) ByEventDevice(ctx context.Context, eventIDs []string, deviceID string) (*Record, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(2, eventIDs)
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE device_id = $1 AND event_id IN (`+in+`) LIMIT 1`,
		append([]any{deviceID}, args...)...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Exists reports whether the student has a record under any of the event ids.
func (r *Repository) Exists(ctx context.Context, eventIDs []string, email string) (bool, error) {
	if len(eventIDs) == 0 {
		return false, nil
	}
	in, args := inClause(2, eventIDs)
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE student_email = $1 AND event_id IN (`+in+`))`,
		append([]any{email}, args...)...).Scan(&exists)
	return exists, err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListByEvent returns records under any of the event ids, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventIDs []string) ([]Record, error) {
	if len(eventIDs) == 0 {
		return []Record{}, nil
	}
	in, args := inClause(1, eventIDs)
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance WHERE event_id IN (`+in+`) ORDER BY marked_at DESC`, args...)
}

// ListByStudent returns the student's records, newest first.
func (r *Repository) ListByStudent(ctx context.Context, email string) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance WHERE student_email = $1 ORDER BY marked_at DESC`, email)
}
