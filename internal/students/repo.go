package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campusattend/internal/dbx"
)

// ErrDeviceTaken is returned by BindDevice when another student owns the device.
var ErrDeviceTaken = errors.New("device bound to another student")

const deviceKey = "students_device_key"

const studentColumns = `email, name, usn, branch, year, device_id, profile_complete, created_at, updated_at`

// Repository persists students in Postgres.
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

func scanStudent(row rowScanner) (*Student, error) {
	var (
		s      Student
		device sql.NullString
	)
	if err := row.Scan(&s.Email, &s.Name, &s.USN, &s.Branch, &s.Year, &device, &s.ProfileComplete, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.DeviceID = device.String
	return &s, nil
}

func (r *Repository) one(ctx context.Context, where string, arg any) (*Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ByEmail returns the student or nil.
func (r *Repository) ByEmail(ctx context.Context, email string) (*Student, error) {
	return r.one(ctx, `email = $1`, email)
}

// ByDevice returns the student the device is bound to, or nil.
func (r *Repository) ByDevice(ctx context.Context, deviceID string) (*Student, error) {
	return r.one(ctx, `device_id = $1`, deviceID)
}

// ByEmails returns the students among emails, keyed by email.
func (r *Repository) ByEmails(ctx context.Context, emails []string) (map[string]Student, error) {
	out := make(map[string]Student, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(emails))
	args := make([]any, len(emails))
	for i, e := range emails {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = e
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students WHERE email IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out[s.Email] = *s
	}
	return out, rows.Err()
}

// Create inserts an empty profile for email unless one exists.
func (r *Repository) Create(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
	`, email)
	return err
}

// UpdateProfile stores profile fields and marks the profile complete.
func (r *Repository) UpdateProfile(ctx context.Context, email string, p Profile) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET name = $2, usn = $3, branch = $4, year = $5, profile_complete = TRUE, updated_at = NOW()
		WHERE email = $1
	`, email, p.Name, p.USN, p.Branch, p.Year)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BindDevice binds deviceID to the student if the student has none yet.
// It reports false when the student already had a device (or does not exist)
// and ErrDeviceTaken when another student owns deviceID.
func (r *Repository) BindDevice(ctx context.Context, email, deviceID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET device_id = $2, updated_at = NOW()
		WHERE email = $1 AND device_id IS NULL
	`, email, deviceID)
	if err != nil {
		if dbx.IsUniqueViolation(err, deviceKey) {
			return false, ErrDeviceTaken
		}
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ResetDevice clears the bound device.
func (r *Repository) ResetDevice(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET device_id = NULL, updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
