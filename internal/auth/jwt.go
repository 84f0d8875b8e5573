package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in tokens. Comparisons are case-insensitive.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
)

// Claims represents JWT payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry one of roles.
func (c Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(c.Role, r) {
			return true
		}
	}
	return false
}

// NormalizedRole returns the role in lower case.
func (c Claims) NormalizedRole() string { return strings.ToLower(c.Role) }

// Issuer mints and verifies HS256 session tokens.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A non-positive ttl defaults to 30 days.
func NewIssuer(key, issuer string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Issuer{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for identity with role.
func (i *Issuer) Issue(email, role string) (string, error) {
	if email == "" || role == "" {
		return "", errors.New("identity and role required")
	}
	now := i.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// Verify returns the decoded claims, or nil when the token is malformed,
// expired, tampered with or signed by someone else.
func (i *Issuer) Verify(tokenStr string) *Claims {
	if tokenStr == "" {
		return nil
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Email == "" || claims.Role == "" {
		return nil
	}
	return claims
}
