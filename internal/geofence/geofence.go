// Package geofence decides whether a reported device location falls inside
// the circular region around the campus reference point.
package geofence

import "math"

const earthRadiusMeters = 6371000

// Verdict is the result of a location check.
type Verdict struct {
	Accepted bool    `json:"accepted"`
	Distance float64 `json:"distance"`
}

// DistanceMeters computes the haversine great-circle distance between two
// coordinates on a sphere of radius 6,371,000 m.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Verify accepts the reported coordinate iff its distance from the reference
// point is finite and within radiusMeters. A NaN or infinite distance is a
// failed check, never a pass.
func Verify(reportedLat, reportedLng, referenceLat, referenceLng, radiusMeters float64) Verdict {
	d := DistanceMeters(reportedLat, reportedLng, referenceLat, referenceLng)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Verdict{Accepted: false, Distance: d}
	}
	return Verdict{Accepted: d <= radiusMeters, Distance: math.Round(d)}
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
