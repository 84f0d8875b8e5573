// Package staff is the Staff Permission Registry: staff accounts provisioned
// by teachers, each carrying a set of capability strings.
package staff

import (
	"slices"
	"strings"
	"time"
)

// Status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// DefaultPermissions are granted when none are specified.
var DefaultPermissions = []string{
	"attendance:read",
	"attendance:update",
	"attendance:export",
	"events:create",
	"events:read",
}

// Staff is a staff member record.
type Staff struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Active reports whether the record may log in. An unset status counts as active.
func (s Staff) Active() bool {
	return s.Status == "" || strings.EqualFold(s.Status, StatusActive)
}

// Can reports whether perm is in the permission set.
func (s Staff) Can(perm string) bool {
	return slices.Contains(s.Permissions, strings.ToLower(perm))
}

// NormalizePermissions lowercases, trims and de-duplicates permissions,
// keeping first-seen order. A nil input stays nil.
func NormalizePermissions(perms []string) []string {
	if perms == nil {
		return nil
	}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AddInput is the body of a staff-add request.
type AddInput struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token       string   `json:"token"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Name        string   `json:"name"`
}
