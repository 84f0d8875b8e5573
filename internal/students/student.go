// Package students manages student accounts: passwordless login restricted
// to the institutional domain, profiles and device binding.
package students

import "time"

// Student is a student account.
type Student struct {
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	USN             string    `json:"usn"`
	Branch          string    `json:"branch"`
	Year            string    `json:"year"`
	DeviceID        string    `json:"deviceId,omitempty"`
	ProfileComplete bool      `json:"profileComplete"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Profile holds the self-editable fields.
type Profile struct {
	Name   string `json:"name"`
	USN    string `json:"usn"`
	Branch string `json:"branch"`
	Year   string `json:"year"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token           string `json:"token"`
	Role            string `json:"role"`
	ProfileComplete bool   `json:"profileComplete"`
}
