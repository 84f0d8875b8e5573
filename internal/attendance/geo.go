package attendance

import "math"

// EarthRadiusMeters is the mean radius of the spherical earth model.
const EarthRadiusMeters = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius reports whether the point is at most radius meters from the center.
func WithinRadius(centerLat, centerLng, lat, lng, radius float64) bool {
	return Haversine(centerLat, centerLng, lat, lng) <= radius
}
