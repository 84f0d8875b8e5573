package staff

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const staffColumns = `id, email, name, role, permissions, status, created_by, created_at, updated_at`

// Repository persists staff in Postgres. Permissions live in a JSONB column.
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

func scanStaff(row rowScanner) (*Staff, error) {
	var (
		s     Staff
		perms []byte
	)
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Role, &perms, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &s.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	return &s, nil
}

func encodePermissions(perms []string) ([]byte, error) {
	if perms == nil {
		return nil, nil
	}
	return json.Marshal(perms)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Insert writes a new staff record.
func (r *Repository) Insert(ctx context.Context, s Staff) error {
	perms, err := encodePermissions(s.Permissions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO staff (id, email, name, role, permissions, status, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.ID, s.Email, s.Name, s.Role, perms, s.Status, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	return err
}

// ByEmail returns the staff record or nil.
func (r *Repository) ByEmail(ctx context.Context, email string) (*Staff, error) {
	s, err := scanStaff(r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByCreator returns staff created by owner, oldest first.
func (r *Repository) ListByCreator(ctx context.Context, owner string) ([]Staff, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE created_by = $1 ORDER BY created_at ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Delete removes the record if owner created it.
func (r *Repository) Delete(ctx context.Context, email, owner string) (bool, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM staff WHERE email = $1 AND created_by = $2`, email, owner))
}

// SetPermissions replaces the permission set if owner created the record.
func (r *Repository) SetPermissions(ctx context.Context, email, owner string, perms []string) (bool, error) {
	raw, err := encodePermissions(perms)
	if err != nil {
		return false, err
	}
	return affected(r.db.ExecContext(ctx, `
		UPDATE staff SET permissions = $3, updated_at = NOW()
		WHERE email = $1 AND created_by = $2
	`, email, owner, raw))
}

// SetStatus updates the status if owner created the record.
func (r *Repository) SetStatus(ctx context.Context, email, owner, status string) (bool, error) {
	return affected(r.db.ExecContext(ctx, `
		UPDATE staff SET status = $3, updated_at = NOW()
		WHERE email = $1 AND created_by = $2
	`, email, owner, status))
}

// BackfillPermissions sets perms on a record that has none.
func (r *Repository) BackfillPermissions(ctx context.Context, email string, perms []string) error {
	raw, err := encodePermissions(perms)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE staff SET permissions = $2, updated_at = NOW()
		WHERE email = $1 AND permissions IS NULL
	`, email, raw)
	return err
}
