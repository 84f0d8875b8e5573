// Package qr builds and reads the payload embedded in event check-in QR codes.
package qr

import (
	"encoding/json"
	"strings"

	"github.com/skip2/go-qrcode"

	"campusattend/internal/apperr"
)

const (
	payloadType    = "attendance"
	payloadVersion = 1
	// DefaultSize is the PNG edge length in pixels.
	DefaultSize = 300
	// MaxSize bounds the requested edge length.
	MaxSize = 1024
)

// ErrInvalidPayload is returned for anything that is not an attendance QR.
var ErrInvalidPayload = apperr.New(apperr.Invalid, "invalid_qr", "Invalid QR code")

// Payload is the JSON content of a check-in QR code.
type Payload struct {
	Type       string `json:"type"`
	Version    int    `json:"version"`
	EventID    string `json:"eventId"`
	SecretCode string `json:"secretCode"`
}

// NewPayload returns the payload for an event.
func NewPayload(eventID, secretCode string) Payload {
	return Payload{Type: payloadType, Version: payloadVersion, EventID: eventID, SecretCode: secretCode}
}

// Encode renders the payload as the string stored in the code.
func (p Payload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses scanned content.
func Decode(content string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &p); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if p.Type != payloadType || p.Version != payloadVersion || p.EventID == "" || p.SecretCode == "" {
		return Payload{}, ErrInvalidPayload
	}
	return p, nil
}

// PNG renders the payload as a QR image. Sizes outside (0, MaxSize] use
// DefaultSize.
func PNG(p Payload, size int) ([]byte, error) {
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}
	content, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
