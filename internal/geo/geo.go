// Package geo provides great-circle helpers for placing and ranging field units.
package geo

import (
	"math"

	"sahm/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by all calculations
const EarthRadiusKm = 6371.0

// DistanceKm uses the Haversine formula to calculate the distance between two points in kilometers
func DistanceKm(a, b models.Location) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Offset returns the point reached by travelling distanceKm from origin on the
// given bearing (radians, clockwise from north)
func Offset(origin models.Location, distanceKm, bearing float64) models.Location {
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)
	angular := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))

	return models.Location{
		Latitude:  toDegrees(lat2),
		Longitude: normalizeLongitude(toDegrees(lon2)),
	}
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	return lon
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
