package attendance

import (
	"time"

	"campusattend/internal/events"
)

// GraceBuffer widens the event window on both sides.
const GraceBuffer = 2 * time.Hour

// checkWindow admits now within [start-2h, end+2h], both ends inclusive.
func checkWindow(evt events.Event, now time.Time) error {
	if now.Before(evt.StartTime.Add(-GraceBuffer)) {
		return ErrNotStarted
	}
	if now.After(evt.EndTime.Add(GraceBuffer)) {
		return ErrEnded
	}
	return nil
}

// checkCodeWindow applies the optional code validity bounds independently.
func checkCodeWindow(evt events.Event, now time.Time) error {
	if evt.CodeValidFrom != nil && now.Before(*evt.CodeValidFrom) {
		return ErrCodeWindow
	}
	if evt.CodeValidTill != nil && now.After(*evt.CodeValidTill) {
		return ErrCodeWindow
	}
	return nil
}

// checkGeofence skips events without coordinates.
func checkGeofence(evt events.Event, lat, lng *float64) error {
	if !evt.HasCoordinates() {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrLocationRequired
	}
	if !WithinRadius(*evt.LocationLat, *evt.LocationLng, *lat, *lng, evt.RadiusMeters) {
		return ErrOutsideRadius
	}
	return nil
}
