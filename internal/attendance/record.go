// Package attendance validates check-in attempts and records attendance.
//
// A self-service check-in runs an ordered sequence of rules; the first rule
// that fails aborts the attempt with its own error. Uniqueness of
// (event, student) and (event, device) is enforced by the database so that
// concurrent attempts cannot produce duplicates.
package attendance

import "time"

// Check-in methods.
const (
	MethodCode  = "CODE"
	MethodQR    = "QR"
	MethodStaff = "STAFF_MANUAL"
)

// Record is one attendance fact. Records are insert-only.
type Record struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	StudentEmail string    `json:"studentEmail"`
	StudentName  string    `json:"studentName"`
	USN          string    `json:"usn"`
	MarkedAt     time.Time `json:"markedAt"`
	Lat          *float64  `json:"lat"`
	Lng          *float64  `json:"lng"`
	DeviceID     string    `json:"deviceId,omitempty"`
	Method       string    `json:"method"`
	MarkedBy     string    `json:"markedBy,omitempty"`
	Verified     bool      `json:"verified"`
}

// Entry is a record joined with the student's current profile.
type Entry struct {
	ID       string    `json:"id"`
	EventID  string    `json:"eventId"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	USN      string    `json:"usn"`
	MarkedAt time.Time `json:"markedAt"`
	DeviceID string    `json:"deviceId,omitempty"`
	Method   string    `json:"method"`
	MarkedBy string    `json:"markedBy,omitempty"`
	Lat      *float64  `json:"lat"`
	Lng      *float64  `json:"lng"`
}

// CodeInput is the body of a secret-code check-in.
type CodeInput struct {
	SecretCode   string   `json:"secretCode"`
	StudentEmail string   `json:"studentEmail"`
	DeviceID     string   `json:"deviceId"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// QRInput is the body of a QR check-in. Payload is the scanned content.
type QRInput struct {
	Payload      string   `json:"payload"`
	StudentEmail string   `json:"studentEmail"`
	DeviceID     string   `json:"deviceId"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// StaffInput is the body of a staff-assisted mark.
type StaffInput struct {
	EventID      string `json:"eventId"`
	StudentEmail string `json:"studentEmail"`
}
