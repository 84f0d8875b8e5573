// Package users holds teacher and admin accounts, which sign in with a
// password stored as a bcrypt hash.
package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
	"campusattend/internal/dbx"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "invalid_credentials", "Invalid credentials")
	ErrExists             = apperr.New(apperr.Conflict, "user_exists", "A user with this email already exists")
	ErrInvalidRole        = apperr.New(apperr.Invalid, "invalid_role", "Role must be teacher or admin")
)

// User is a teacher or admin account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ByEmail returns the user or nil.
func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Insert writes a new user.
func (r *Repository) Insert(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.CreatedAt)
	return err
}

// Store is the persistence the service needs.
type Store interface {
	ByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u User) error
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(email, role string) (string, error)
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}

// Service authenticates and provisions users.
type Service struct {
	repo    Store
	tokens  TokenIssuer
	cost    int
	now     func() time.Time
	compare func(hash, password []byte) error

	decoyOnce sync.Once
	decoy     []byte
}

// NewService creates a service.
func NewService(repo Store, tokens TokenIssuer) *Service {
	return &Service{
		repo:    repo,
		tokens:  tokens,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// decoyHash is compared against when the email is unknown, so a miss costs
// the same bcrypt work as a wrong password.
func (s *Service) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		s.decoy, _ = bcrypt.GenerateFromPassword([]byte("campusattend-unknown-user"), s.cost)
	})
	return s.decoy
}

// Login checks the password against the stored hash.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, apperr.New(apperr.Invalid, "missing_fields", "Email and password are required")
	}
	u, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperr.Internalf("user by email: %w", err)
	}
	if u == nil {
		_ = s.compare(s.decoyHash(), []byte(password))
		return LoginResult{}, ErrInvalidCredentials
	}
	if s.compare([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	role := strings.ToLower(u.Role)
	token, err := s.tokens.Issue(u.Email, role)
	if err != nil {
		return LoginResult{}, apperr.Internalf("issue token: %w", err)
	}
	return LoginResult{Token: token, Role: role, Name: u.Name}, nil
}

// Provision creates a teacher or admin account.
func (s *Service) Provision(ctx context.Context, email, name, role, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToLower(strings.TrimSpace(role))
	if email == "" || password == "" {
		return User{}, apperr.New(apperr.Invalid, "missing_fields", "Email and password are required")
	}
	if role != auth.RoleTeacher && role != auth.RoleAdmin {
		return User{}, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, apperr.Internalf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		if dbx.IsUniqueViolation(err, "users_email_key") {
			return User{}, ErrExists
		}
		return User{}, apperr.Internalf("insert user: %w", err)
	}
	return u, nil
}
