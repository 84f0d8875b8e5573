package students

import (
	"context"
	"strings"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
)

var (
	ErrNotFound      = apperr.New(apperr.NotFound, "student_not_found", "Student not found")
	ErrEmailRequired = apperr.New(apperr.Invalid, "missing_fields", "Email is required")
)

// Store is the persistence the service needs.
type Store interface {
	ByEmail(ctx context.Context, email string) (*Student, error)
	Create(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, email string, p Profile) (bool, error)
	ResetDevice(ctx context.Context, email string) (bool, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(email, role string) (string, error)
}

// Service handles student login and profile management.
type Service struct {
	repo   Store
	tokens TokenIssuer
	domain string
}

// NewService creates a service. Logins are limited to addresses at domain;
// an empty domain accepts any address.
func NewService(repo Store, tokens TokenIssuer, domain string) *Service {
	return &Service{repo: repo, tokens: tokens, domain: strings.ToLower(strings.TrimPrefix(domain, "@"))}
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login signs a student in, creating an empty profile on first use.
func (s *Service) Login(ctx context.Context, email string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return LoginResult{}, ErrEmailRequired
	}
	if s.domain != "" && !strings.HasSuffix(email, "@"+s.domain) {
		return LoginResult{}, apperr.Invalidf("invalid_domain", "Please use your %s email address", s.domain)
	}

	student, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperr.Internalf("student by email: %w", err)
	}
	if student == nil {
		if err := s.repo.Create(ctx, email); err != nil {
			return LoginResult{}, apperr.Internalf("create student: %w", err)
		}
		student = &Student{Email: email}
	}

	token, err := s.tokens.Issue(email, auth.RoleStudent)
	if err != nil {
		return LoginResult{}, apperr.Internalf("issue token: %w", err)
	}
	return LoginResult{Token: token, Role: auth.RoleStudent, ProfileComplete: student.ProfileComplete}, nil
}

// Profile returns the caller's own profile.
func (s *Service) Profile(ctx context.Context, claims auth.Claims) (Student, error) {
	if !claims.HasRole(auth.RoleStudent) {
		return Student{}, apperr.ErrForbidden
	}
	student, err := s.repo.ByEmail(ctx, NormalizeEmail(claims.Email))
	if err != nil {
		return Student{}, apperr.Internalf("student by email: %w", err)
	}
	if student == nil {
		return Student{}, ErrNotFound
	}
	return *student, nil
}

// UpdateProfile completes the caller's profile. Existing attendance rows keep
// their snapshot; reads join the current profile.
func (s *Service) UpdateProfile(ctx context.Context, claims auth.Claims, p Profile) error {
	if !claims.HasRole(auth.RoleStudent) {
		return apperr.ErrForbidden
	}
	p = Profile{
		Name:   strings.TrimSpace(p.Name),
		USN:    strings.ToUpper(strings.TrimSpace(p.USN)),
		Branch: strings.TrimSpace(p.Branch),
		Year:   strings.TrimSpace(p.Year),
	}
	if p.Name == "" {
		return apperr.Invalidf("missing_fields", "Missing required field: %s", "name")
	}
	if p.USN == "" {
		return apperr.Invalidf("missing_fields", "Missing required field: %s", "usn")
	}
	ok, err := s.repo.UpdateProfile(ctx, NormalizeEmail(claims.Email), p)
	if err != nil {
		return apperr.Internalf("update profile: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ResetDevice clears a student's bound device. Admin only.
func (s *Service) ResetDevice(ctx context.Context, claims auth.Claims, email string) error {
	if !claims.HasRole(auth.RoleAdmin) {
		return apperr.ErrForbidden
	}
	return s.ForceResetDevice(ctx, email)
}

// ForceResetDevice clears a bound device without an authorization check.
// Used by the operator CLI.
func (s *Service) ForceResetDevice(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	ok, err := s.repo.ResetDevice(ctx, email)
	if err != nil {
		return apperr.Internalf("reset device: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
