// Package events is the Event Registry: event definitions, their access
// codes, and owner-scoped create, delete and list operations.
package events

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Event is a scheduled session students check in to.
type Event struct {
	ID                string     `json:"id"`
	EventID           string     `json:"eventId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           time.Time  `json:"endTime"`
	Location          string     `json:"location"`
	LocationLat       *float64   `json:"locationLat"`
	LocationLng       *float64   `json:"locationLng"`
	RadiusMeters      float64    `json:"radiusMeters"`
	SecretCode        string     `json:"secretCode,omitempty"`
	SecretCodeEnabled bool       `json:"secretCodeEnabled"`
	QRModeEnabled     bool       `json:"qrModeEnabled"`
	CodeValidFrom     *time.Time `json:"codeValidFrom"`
	CodeValidTill     *time.Time `json:"codeValidTill"`
	CreatedBy         string     `json:"createdBy"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// HasCoordinates reports whether a geofence center is configured.
func (e Event) HasCoordinates() bool {
	return e.LocationLat != nil && e.LocationLng != nil
}

// Public returns a copy safe for unauthenticated listings.
func (e Event) Public() Event {
	e.SecretCode = ""
	return e
}

// Identifiers lists every form attendance rows may use to reference the event.
func (e Event) Identifiers() []string {
	ids := make([]string, 0, 2)
	if e.EventID != "" {
		ids = append(ids, e.EventID)
	}
	if e.ID != "" && e.ID != e.EventID {
		ids = append(ids, e.ID)
	}
	return ids
}

// OwnedBy reports whether email created the event.
func (e Event) OwnedBy(email string) bool {
	return e.CreatedBy != "" && strings.EqualFold(e.CreatedBy, email)
}

// Number is a JSON value that may arrive as a number, a numeric string,
// an empty string or null. Forms post coordinates as strings.
type Number struct {
	present bool
	set     bool
	valid   bool
	value   float64
}

// NumberOf returns a present, valid Number.
func NumberOf(v float64) Number {
	return Number{present: true, set: true, valid: !math.IsNaN(v) && !math.IsInf(v, 0), value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{present: true}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	n.set = true
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.valid = true
	n.value = f
	return nil
}

// Present reports whether the key appeared at all, even as null or "".
func (n Number) Present() bool { return n.present }

// Set reports whether a non-empty value was supplied.
func (n Number) Set() bool { return n.set }

// Float returns the value and whether it parsed as a finite number.
func (n Number) Float() (float64, bool) { return n.value, n.set && n.valid }

// CreateInput is the body of an event-create request.
type CreateInput struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	Location          string `json:"location"`
	LocationLat       Number `json:"locationLat"`
	LocationLng       Number `json:"locationLng"`
	RadiusMeters      Number `json:"radiusMeters"`
	SecretCodeEnabled *bool  `json:"secretCodeEnabled"`
	QRModeEnabled     bool   `json:"qrModeEnabled"`
	CodeValidFrom     string `json:"codeValidFrom"`
	CodeValidTill     string `json:"codeValidTill"`
}

// Created is returned by a successful create.
type Created struct {
	ID         string `json:"id"`
	EventID    string `json:"eventId"`
	SecretCode string `json:"secretCode,omitempty"`
}
