package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

const kmPerMile = 1.609344

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// NewCoordinate builds a coordinate from nullable columns; nil when either part is missing.
func NewCoordinate(lat, lng *float64) *Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &Coordinate{Lat: *lat, Lng: *lng}
}

// DistanceKm returns the haversine distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// float drift can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistanceBetween returns nil when either side has no coordinate.
func DistanceBetween(a, b *Coordinate) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := DistanceKm(*a, *b)
	return &d
}

// RoundKm rounds a distance for display.
func RoundKm(km float64, places int32) float64 {
	return decimal.NewFromFloat(km).Round(places).InexactFloat64()
}

// KmToMiles converts and rounds to one decimal place.
func KmToMiles(km float64) float64 {
	return decimal.NewFromFloat(km).Div(decimal.NewFromFloat(kmPerMile)).Round(1).InexactFloat64()
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
