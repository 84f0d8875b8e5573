package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_Unmarshal(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		set   bool
		valid bool
		want  float64
	}{
		{"number", `13.5`, true, true, 13.5},
		{"numeric string", `" 77.25 "`, true, true, 77.25},
		{"empty string", `""`, false, false, 0},
		{"null", `null`, false, false, 0},
		{"garbage string", `"north"`, true, false, 0},
		{"bool", `true`, true, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in struct {
				N Number `json:"n"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"n":`+tc.raw+`}`), &in))
			assert.True(t, in.N.Present())
			assert.Equal(t, tc.set, in.N.Set())
			v, ok := in.N.Float()
			assert.Equal(t, tc.valid, ok)
			if tc.valid {
				assert.InDelta(t, tc.want, v, 1e-9)
			}
		})
	}
}

func TestNumber_Missing(t *testing.T) {
	var in CreateInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &in))
	assert.False(t, in.LocationLat.Set())
	assert.False(t, in.RadiusMeters.Set())
	assert.False(t, in.RadiusMeters.Present())
	assert.Nil(t, in.SecretCodeEnabled)
}

func TestParseTime(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	got, err := ParseTime("2024-03-01T10:00:00Z", ist)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	got, err = ParseTime("2024-03-01T15:30", ist)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	got, err = ParseTime("2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	_, err = ParseTime("tomorrow", time.UTC)
	assert.Error(t, err)
}

func TestEvent_Helpers(t *testing.T) {
	lat, lng := 13.1, 77.5
	e := Event{ID: "b1c2", EventID: "EVT-ABC123", SecretCode: "AI-XYZ789", CreatedBy: "t@campus.edu", LocationLat: &lat}
	assert.False(t, e.HasCoordinates())
	e.LocationLng = &lng
	assert.True(t, e.HasCoordinates())

	assert.Equal(t, "", e.Public().SecretCode)
	assert.Equal(t, "AI-XYZ789", e.SecretCode)
	assert.Equal(t, []string{"EVT-ABC123", "b1c2"}, e.Identifiers())
	assert.True(t, e.OwnedBy("T@Campus.edu"))
	assert.False(t, Event{}.OwnedBy(""))
}

func TestRandomCodes(t *testing.T) {
	id, err := NewEventID()
	require.NoError(t, err)
	assert.Regexp(t, `^EVT-[A-Z2-9]{6}$`, id)

	code, err := NewSecretCode()
	require.NoError(t, err)
	assert.Regexp(t, `^AI-[A-Z2-9]{6}$`, code)
}
