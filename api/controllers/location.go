package controllers

import (
	"context"

	"github.com/angelmondragon/farmstand-backend/api/validators"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
)

// shopperFromQuery builds the ranking location from request parameters. Coordinates win
// over a zip; a zip alone is geocoded and, if that fails, kept only for delivery matching.
// Returns nil when the request carries no location at all.
func shopperFromQuery(ctx context.Context, q validators.LocationQuery, geocoder maps.ZipGeocoder, logg *logger.Logger) *ranking.ShopperLocation {
	if !q.HasCoords() && q.Zip == "" {
		return nil
	}

	shopper := &ranking.ShopperLocation{
		Accuracy:   q.Accuracy,
		CapturedAt: q.CapturedAt,
		ZipCode:    q.Zip,
		Source:     enums.LocationSourceBrowser,
	}
	if q.Source != "" {
		if src, err := enums.ParseLocationSource(q.Source); err == nil {
			shopper.Source = src
		}
	}

	if q.HasCoords() {
		shopper.Coords = &geo.Coordinate{Lat: *q.Lat, Lng: *q.Lng}
		return shopper
	}

	shopper.Source = enums.LocationSourceZipCode
	if geocoder == nil {
		return shopper
	}
	latlng, err := geocoder.GeocodeZip(ctx, q.Zip)
	if err != nil {
		if logg != nil {
			logg.WarnErr(logg.WithField(ctx, "zip", q.Zip), "shopper.geocode_failed", err)
		}
		return shopper
	}
	if latlng != nil {
		shopper.Coords = &geo.Coordinate{Lat: latlng.Latitude, Lng: latlng.Longitude}
	}
	return shopper
}
