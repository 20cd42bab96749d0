package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/farmstand-backend/api/responses"
	"github.com/angelmondragon/farmstand-backend/api/validators"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/home"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/pagination"
)

// HomeService serves the ranked home listing.
type HomeService interface {
	GetHomeProducts(ctx context.Context, q home.Query) home.Result
}

// NearbyService ranks products around a reference point.
type NearbyService interface {
	GetNearbyProducts(ctx context.Context, excludeID uuid.UUID, ref geo.Coordinate) []ranking.RankedProduct
	ReferenceFor(ctx context.Context, productID uuid.UUID) (*geo.Coordinate, error)
}

type nearbyResponse struct {
	Products []ranking.RankedProduct `json:"products"`
}

// HomeProducts serves the ranked home listing.
func HomeProducts(svc HomeService, geocoder maps.ZipGeocoder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "home service unavailable"))
			return
		}

		loc, err := validators.ParseLocationQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := enums.ParsePageKind(r.URL.Query().Get("page"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid page").
				WithDetails(map[string]any{"field": "page"}))
			return
		}

		cursor := validators.SanitizeString(r.URL.Query().Get("cursor"), 256)
		if _, err := pagination.ParseCursor(cursor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.GetHomeProducts(r.Context(), home.Query{
			Shopper: shopperFromQuery(r.Context(), loc, geocoder, logg),
			Page:    page,
			Cursor:  cursor,
		})
		responses.WriteSuccess(w, result)
	}
}

// NearbyProducts serves the products closest to a product. Without lat/lng the product's
// own first pickup location is the reference point.
func NearbyProducts(svc NearbyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nearby service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loc, err := validators.ParseLocationQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var ref *geo.Coordinate
		if loc.HasCoords() {
			ref = &geo.Coordinate{Lat: *loc.Lat, Lng: *loc.Lng}
		} else {
			ref, err = svc.ReferenceFor(r.Context(), productID)
			switch {
			case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
				responses.WriteError(r.Context(), logg, w, err)
				return
			case err != nil:
				if logg != nil {
					logg.WarnErr(logg.WithField(r.Context(), "product_id", productID.String()), "nearby.reference_failed", err)
				}
				ref = nil
			}
		}

		if ref == nil {
			responses.WriteSuccess(w, nearbyResponse{Products: []ranking.RankedProduct{}})
			return
		}
		responses.WriteSuccess(w, nearbyResponse{Products: svc.GetNearbyProducts(r.Context(), productID, *ref)})
	}
}
