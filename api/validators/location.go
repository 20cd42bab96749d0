package validators

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
)

const maxSearchQueryLen = 100

// LocationQuery is the shopper location carried on discovery requests.
type LocationQuery struct {
	Lat        *float64   `query:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64   `query:"lng" validate:"omitempty,gte=-180,lte=180"`
	Accuracy   *float64   `query:"accuracy" validate:"omitempty,gte=0"`
	CapturedAt *time.Time `query:"captured_at"`
	Zip        string     `query:"zip" validate:"omitempty,len=5,numeric"`
	Source     string     `query:"source" validate:"omitempty,oneof=browser zipcode"`
}

// HasCoords reports whether both lat and lng were supplied.
func (q LocationQuery) HasCoords() bool {
	return q.Lat != nil && q.Lng != nil
}

// ParseLocationQuery reads and validates lat, lng, accuracy, captured_at, zip and source.
// lat and lng must be supplied together.
func ParseLocationQuery(r *http.Request) (LocationQuery, error) {
	var q LocationQuery
	var err error
	if q.Lat, err = ParseQueryFloat(r, "lat"); err != nil {
		return LocationQuery{}, err
	}
	if q.Lng, err = ParseQueryFloat(r, "lng"); err != nil {
		return LocationQuery{}, err
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return LocationQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together").
			WithDetails(map[string]any{"field": "lat,lng"})
	}
	if q.Accuracy, err = ParseQueryFloat(r, "accuracy"); err != nil {
		return LocationQuery{}, err
	}
	if q.CapturedAt, err = ParseQueryTime(r, "captured_at"); err != nil {
		return LocationQuery{}, err
	}
	values := r.URL.Query()
	q.Zip = SanitizeString(values.Get("zip"), 10)
	q.Source = strings.ToLower(SanitizeString(values.Get("source"), 16))

	if err := Struct(q); err != nil {
		return LocationQuery{}, err
	}
	return q, nil
}

// SearchQuery is the input of the search endpoint. Zip is not validated here: a missing
// or malformed zip is answered with an empty result, not an error.
type SearchQuery struct {
	Zip   string `query:"zip"`
	Query string `query:"q" validate:"max=100"`
}

func ParseSearchQuery(r *http.Request) (SearchQuery, error) {
	values := r.URL.Query()
	q := SearchQuery{
		Zip:   SanitizeString(values.Get("zip"), 10),
		Query: SanitizeString(values.Get("q"), maxSearchQueryLen),
	}
	if err := Struct(q); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

// ParseUUIDParam parses a path parameter as a UUID.
func ParseUUIDParam(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
