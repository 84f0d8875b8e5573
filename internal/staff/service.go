package staff

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
	"campusattend/internal/dbx"
)

var (
	ErrExists         = apperr.New(apperr.Conflict, "staff_exists", "Staff member already exists")
	ErrNotFound       = apperr.New(apperr.NotFound, "staff_not_found", "Staff member not found")
	ErrNotProvisioned = apperr.New(apperr.Unauthenticated, "staff_not_provisioned", "Staff not found. Please ask your teacher to add you.")
	ErrInvalidStatus  = apperr.New(apperr.Invalid, "invalid_status", "Status must be active or inactive")
)

// Store is the persistence the service needs.
type Store interface {
	Insert(ctx context.Context, s Staff) error
	ByEmail(ctx context.Context, email string) (*Staff, error)
	ListByCreator(ctx context.Context, owner string) ([]Staff, error)
	Delete(ctx context.Context, email, owner string) (bool, error)
	SetPermissions(ctx context.Context, email, owner string, perms []string) (bool, error)
	SetStatus(ctx context.Context, email, owner, status string) (bool, error)
	BackfillPermissions(ctx context.Context, email string, perms []string) error
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(email, role string) (string, error)
}

// Service implements the Staff Permission Registry.
type Service struct {
	repo   Store
	tokens TokenIssuer
	now    func() time.Time
}

// NewService creates a service.
func NewService(repo Store, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireManager(claims auth.Claims) error {
	if !claims.HasRole(auth.RoleTeacher, auth.RoleAdmin) {
		return apperr.ErrForbidden
	}
	return nil
}

// Add provisions a staff member owned by the requester. Omitted permissions
// default to DefaultPermissions; an explicit empty list is kept empty.
func (s *Service) Add(ctx context.Context, claims auth.Claims, in AddInput) (Staff, error) {
	if err := requireManager(claims); err != nil {
		return Staff{}, err
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return Staff{}, apperr.New(apperr.Invalid, "missing_fields", "Email and name required")
	}

	existing, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return Staff{}, apperr.Internalf("staff by email: %w", err)
	}
	if existing != nil {
		return Staff{}, ErrExists
	}

	perms := NormalizePermissions(in.Permissions)
	if perms == nil {
		perms = append([]string(nil), DefaultPermissions...)
	}
	now := s.now().UTC()
	rec := Staff{
		ID:          uuid.NewString(),
		Email:       email,
		Name:        name,
		Role:        auth.RoleStaff,
		Permissions: perms,
		Status:      StatusActive,
		CreatedBy:   normalizeEmail(claims.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		if dbx.IsUniqueViolation(err, "staff_email_key") {
			return Staff{}, ErrExists
		}
		return Staff{}, apperr.Internalf("insert staff: %w", err)
	}
	return rec, nil
}

// List returns the staff the requester created.
func (s *Service) List(ctx context.Context, claims auth.Claims) ([]Staff, error) {
	if err := requireManager(claims); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByCreator(ctx, normalizeEmail(claims.Email))
	if err != nil {
		return nil, apperr.Internalf("list staff: %w", err)
	}
	return list, nil
}

// Remove deletes a staff member the requester created.
func (s *Service) Remove(ctx context.Context, claims auth.Claims, email string) error {
	if err := requireManager(claims); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if email == "" {
		return apperr.New(apperr.Invalid, "missing_fields", "Email required")
	}
	ok, err := s.repo.Delete(ctx, email, normalizeEmail(claims.Email))
	if err != nil {
		return apperr.Internalf("delete staff: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// UpdatePermissions replaces the permission set of a staff member the
// requester created. A nil perms means the field was missing.
func (s *Service) UpdatePermissions(ctx context.Context, claims auth.Claims, email string, perms []string) error {
	if err := requireManager(claims); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if email == "" || perms == nil {
		return apperr.New(apperr.Invalid, "missing_fields", "Email and permissions required")
	}
	ok, err := s.repo.SetPermissions(ctx, email, normalizeEmail(claims.Email), NormalizePermissions(perms))
	if err != nil {
		return apperr.Internalf("update permissions: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// SetStatus activates or deactivates a staff member the requester created.
func (s *Service) SetStatus(ctx context.Context, claims auth.Claims, email, status string) error {
	if err := requireManager(claims); err != nil {
		return err
	}
	email = normalizeEmail(email)
	status = strings.ToLower(strings.TrimSpace(status))
	if email == "" {
		return apperr.New(apperr.Invalid, "missing_fields", "Email required")
	}
	if status != StatusActive && status != StatusInactive {
		return ErrInvalidStatus
	}
	ok, err := s.repo.SetStatus(ctx, email, normalizeEmail(claims.Email), status)
	if err != nil {
		return apperr.Internalf("update staff status: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Login signs in an active, provisioned staff member. Records that have
// never had a permission set get DefaultPermissions.
func (s *Service) Login(ctx context.Context, email string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return LoginResult{}, apperr.New(apperr.Invalid, "missing_fields", "Email required")
	}
	rec, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperr.Internalf("staff by email: %w", err)
	}
	if rec == nil || !rec.Active() {
		return LoginResult{}, ErrNotProvisioned
	}

	perms := rec.Permissions
	if perms == nil {
		perms = append([]string(nil), DefaultPermissions...)
		if err := s.repo.BackfillPermissions(ctx, email, perms); err != nil {
			return LoginResult{}, apperr.Internalf("backfill permissions: %w", err)
		}
	}

	token, err := s.tokens.Issue(email, auth.RoleStaff)
	if err != nil {
		return LoginResult{}, apperr.Internalf("issue token: %w", err)
	}
	return LoginResult{Token: token, Role: auth.RoleStaff, Permissions: perms, Name: rec.Name}, nil
}

// HasPermission reports whether email belongs to an active staff member
// holding perm.
func (s *Service) HasPermission(ctx context.Context, email, perm string) (bool, error) {
	rec, err := s.repo.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return false, err
	}
	if rec == nil || !rec.Active() {
		return false, nil
	}
	return rec.Can(perm), nil
}
