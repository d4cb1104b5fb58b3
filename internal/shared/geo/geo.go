package geo

import (
	"fmt"
	"math"
)

const earthRadiusM = 6371000

// MileMeters is the number of meters in one statute mile.
const MileMeters = 1609.34

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineMeters returns the great-circle distance between two points in
// meters. The square-root argument is clamped to [0,1] so floating-point
// overshoot near antipodal or identical points cannot leave the domain.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLng*sinLng
	a = math.Min(math.Max(a, 0), 1)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineMeters(lat1, lng1, lat2, lng2) / 1000
}

// MetersToKm formats meters as kilometers with two decimals.
func MetersToKm(meters float64) string {
	return fmt.Sprintf("%.2f", meters/1000)
}

// MetersToMiles formats meters as miles with two decimals.
func MetersToMiles(meters float64) string {
	return fmt.Sprintf("%.2f", meters/MileMeters)
}
