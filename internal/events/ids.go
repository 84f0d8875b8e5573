package events

import (
	"crypto/rand"
	"math/big"
)

const (
	eventIDPrefix    = "EVT-"
	secretCodePrefix = "AI-"
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength       = 6
)

func randomCode(prefix string) (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return prefix + string(buf), nil
}

// NewEventID returns a fresh human-readable event id such as EVT-7KQ2MX.
func NewEventID() (string, error) { return randomCode(eventIDPrefix) }

// NewSecretCode returns a fresh access code such as AI-X4P9TD.
func NewSecretCode() (string, error) { return randomCode(secretCodePrefix) }
