package geo

import (
	"math"
	"testing"
)

func TestDistanceKmSymmetryAndIdentity(t *testing.T) {
	points := []Coordinate{
		{Lat: 30.2672, Lng: -97.7431},
		{Lat: 29.7604, Lng: -95.3698},
		{Lat: 40.7128, Lng: -74.0060},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 180},
	}

	for _, a := range points {
		if d := DistanceKm(a, a); d != 0 {
			t.Fatalf("distance from %v to itself = %v, want 0", a, d)
		}
		for _, b := range points {
			ab := DistanceKm(a, b)
			ba := DistanceKm(b, a)
			if ab != ba {
				t.Fatalf("asymmetric distance %v->%v: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 {
				t.Fatalf("negative distance %v", ab)
			}
		}
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	cases := []struct {
		name string
		a, b Coordinate
		want float64
	}{
		{name: "austin to houston", a: Coordinate{30.2672, -97.7431}, b: Coordinate{29.7604, -95.3698}, want: 235.4},
		{name: "quarter meridian", a: Coordinate{0, 0}, b: Coordinate{90, 0}, want: math.Pi * EarthRadiusKm / 2},
		{name: "antipodal", a: Coordinate{0, 0}, b: Coordinate{0, 180}, want: math.Pi * EarthRadiusKm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.a, tc.b)
			if math.Abs(got-tc.want) > 2 {
				t.Fatalf("DistanceKm = %.2f, want ~%.2f", got, tc.want)
			}
		})
	}
}

func TestDistanceBetweenNil(t *testing.T) {
	a := &Coordinate{Lat: 1, Lng: 1}
	if DistanceBetween(nil, a) != nil || DistanceBetween(a, nil) != nil {
		t.Fatal("expected nil distance when a side is missing")
	}
	if d := DistanceBetween(a, a); d == nil || *d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestNewCoordinate(t *testing.T) {
	lat, lng := 30.0, -97.0
	if NewCoordinate(&lat, nil) != nil || NewCoordinate(nil, &lng) != nil {
		t.Fatal("partial coordinates should be nil")
	}
	if c := NewCoordinate(&lat, &lng); c == nil || c.Lat != 30 || c.Lng != -97 {
		t.Fatalf("unexpected coordinate %v", c)
	}
}

func TestRounding(t *testing.T) {
	if got := RoundKm(12.3456, 1); got != 12.3 {
		t.Fatalf("RoundKm = %v", got)
	}
	if got := KmToMiles(321.87); got != 200 {
		t.Fatalf("KmToMiles = %v", got)
	}
}
