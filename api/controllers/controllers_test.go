package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/home"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/internal/search"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type fakeHome struct {
	got    *home.Query
	result home.Result
}

func (f *fakeHome) GetHomeProducts(_ context.Context, q home.Query) home.Result {
	f.got = &q
	return f.result
}

type fakeGeocoder struct {
	result *maps.LatLng
	err    error
	calls  int
}

func (f *fakeGeocoder) GeocodeZip(context.Context, string) (*maps.LatLng, error) {
	f.calls++
	return f.result, f.err
}

type fakeNearby struct {
	ref       *geo.Coordinate
	refErr    error
	products  []ranking.RankedProduct
	gotRef    *geo.Coordinate
	gotID     uuid.UUID
	nearCalls int
}

func (f *fakeNearby) GetNearbyProducts(_ context.Context, excludeID uuid.UUID, ref geo.Coordinate) []ranking.RankedProduct {
	f.nearCalls++
	f.gotID = excludeID
	f.gotRef = &ref
	return f.products
}

func (f *fakeNearby) ReferenceFor(context.Context, uuid.UUID) (*geo.Coordinate, error) {
	return f.ref, f.refErr
}

type fakeSearch struct {
	zip, query string
	result     search.Result
}

func (f *fakeSearch) Search(_ context.Context, zip, query string) search.Result {
	f.zip, f.query = zip, query
	return f.result
}

type emptySearchReader struct{ calls int }

func (r *emptySearchReader) FindActiveProducts(context.Context, catalog.ProductFilter) ([]models.Product, error) {
	r.calls++
	return nil, nil
}

func (r *emptySearchReader) ListActiveStands(context.Context, int) ([]models.MarketStand, error) {
	r.calls++
	return nil, nil
}

func (r *emptySearchReader) ListActiveFarms(context.Context, int) ([]models.Farm, error) {
	r.calls++
	return nil, nil
}

type countingGeocoder struct{ calls int }

func (g *countingGeocoder) GeocodeZip(context.Context, string) (*maps.LatLng, error) {
	g.calls++
	return nil, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestHomeProducts(t *testing.T) {
	logg := testLogger()

	t.Run("coordinates win over zip", func(t *testing.T) {
		svc := &fakeHome{result: home.Result{Products: []ranking.RankedProduct{{Name: "Eggs"}}, Source: "geo", NextCursor: "next"}}
		geocoder := &fakeGeocoder{}
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), ID: uuid.New()})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home?lat=30.2&lng=-97.7&zip=78701&page=continuation&cursor="+cursor, nil)
		rec := httptest.NewRecorder()

		HomeProducts(svc, geocoder, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.got)
		require.NotNil(t, svc.got.Shopper)
		assert.Equal(t, geo.Coordinate{Lat: 30.2, Lng: -97.7}, *svc.got.Shopper.Coords)
		assert.Equal(t, enums.LocationSourceBrowser, svc.got.Shopper.Source)
		assert.Equal(t, "78701", svc.got.Shopper.ZipCode)
		assert.Equal(t, enums.PageKindContinuation, svc.got.Page)
		assert.Equal(t, cursor, svc.got.Cursor)
		assert.Zero(t, geocoder.calls)

		var body home.Result
		decodeData(t, rec, &body)
		assert.Equal(t, "geo", body.Source)
		assert.Equal(t, "next", body.NextCursor)
		require.Len(t, body.Products, 1)
	})

	t.Run("malformed cursor is rejected", func(t *testing.T) {
		svc := &fakeHome{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home?cursor=not-a-cursor", nil)
		rec := httptest.NewRecorder()

		HomeProducts(svc, &fakeGeocoder{}, logg).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
		assert.Nil(t, svc.got)
	})

	t.Run("zip only is geocoded", func(t *testing.T) {
		svc := &fakeHome{result: home.Result{Products: []ranking.RankedProduct{}, Source: "cache"}}
		geocoder := &fakeGeocoder{result: &maps.LatLng{Latitude: 30.27, Longitude: -97.74}}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home?zip=78701", nil)
		rec := httptest.NewRecorder()

		HomeProducts(svc, geocoder, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, geocoder.calls)
		require.NotNil(t, svc.got.Shopper)
		assert.Equal(t, enums.LocationSourceZipCode, svc.got.Shopper.Source)
		assert.Equal(t, geo.Coordinate{Lat: 30.27, Lng: -97.74}, *svc.got.Shopper.Coords)
		assert.Equal(t, enums.PageKindInitial, svc.got.Page)
	})

	t.Run("geocode failure keeps zip for delivery", func(t *testing.T) {
		svc := &fakeHome{}
		geocoder := &fakeGeocoder{err: errors.New("maps down")}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home?zip=78701", nil)
		rec := httptest.NewRecorder()

		HomeProducts(svc, geocoder, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.got.Shopper)
		assert.Nil(t, svc.got.Shopper.Coords)
		assert.Equal(t, "78701", svc.got.Shopper.ZipCode)
	})

	t.Run("no location", func(t *testing.T) {
		svc := &fakeHome{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home", nil)
		rec := httptest.NewRecorder()

		HomeProducts(svc, nil, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, svc.got.Shopper)
	})

	for name, query := range map[string]string{
		"bad lat":     "lat=abc&lng=1",
		"bad page":    "page=third",
		"half a pair": "lng=1",
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeHome{}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/home?"+query, nil)
			rec := httptest.NewRecorder()

			HomeProducts(svc, nil, logg).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
			assert.Nil(t, svc.got)
		})
	}
}

func nearbyRequest(productID, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID+"/nearby?"+query, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestNearbyProducts(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()

	t.Run("explicit coordinates", func(t *testing.T) {
		svc := &fakeNearby{products: []ranking.RankedProduct{{Name: "Kale"}}}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest(productID.String(), "lat=1.5&lng=2.5"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, productID, svc.gotID)
		assert.Equal(t, geo.Coordinate{Lat: 1.5, Lng: 2.5}, *svc.gotRef)

		var body nearbyResponse
		decodeData(t, rec, &body)
		require.Len(t, body.Products, 1)
		assert.Equal(t, "Kale", body.Products[0].Name)
	})

	t.Run("defaults to the product location", func(t *testing.T) {
		svc := &fakeNearby{ref: &geo.Coordinate{Lat: 10, Lng: 20}, products: []ranking.RankedProduct{}}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest(productID.String(), ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, geo.Coordinate{Lat: 10, Lng: 20}, *svc.gotRef)
	})

	t.Run("product without location", func(t *testing.T) {
		svc := &fakeNearby{}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest(productID.String(), ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, svc.nearCalls)
		assert.JSONEq(t, `{"data":{"products":[]}}`, rec.Body.String())
	})

	t.Run("reference lookup failure degrades to empty", func(t *testing.T) {
		svc := &fakeNearby{refErr: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest(productID.String(), ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, svc.nearCalls)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc := &fakeNearby{refErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest(productID.String(), ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid product id", func(t *testing.T) {
		svc := &fakeNearby{}
		rec := httptest.NewRecorder()

		NearbyProducts(svc, logg).ServeHTTP(rec, nearbyRequest("not-a-uuid", ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.nearCalls)
	})
}

func TestSearch(t *testing.T) {
	logg := testLogger()

	t.Run("passes sanitized input", func(t *testing.T) {
		svc := &fakeSearch{result: search.Result{
			Products:        []ranking.RankedProduct{},
			PickupLocations: []search.PickupLocation{},
			Farms:           []search.Farm{{Name: "Green Acres"}},
			Location:        &geo.Coordinate{Lat: 30, Lng: -97},
		}}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?zip=78701&q=%20honey%20", nil)
		rec := httptest.NewRecorder()

		Search(svc, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "78701", svc.zip)
		assert.Equal(t, "honey", svc.query)

		var body search.Result
		decodeData(t, rec, &body)
		require.Len(t, body.Farms, 1)
		assert.Equal(t, "Green Acres", body.Farms[0].Name)
		require.NotNil(t, body.Location)
	})

	t.Run("bad zip yields an empty result", func(t *testing.T) {
		reader := &emptySearchReader{}
		geocoder := &countingGeocoder{}
		svc, err := search.NewService(reader, geocoder, ranking.NewEngine(time.UTC), search.Options{}, nil, nil)
		require.NoError(t, err)

		for _, target := range []string{
			"/api/v1/search?zip=abcde",
			"/api/v1/search?zip=1234",
			"/api/v1/search?q=eggs",
		} {
			rec := httptest.NewRecorder()
			Search(svc, logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			require.Equal(t, http.StatusOK, rec.Code, target)
			var envelope struct {
				Data map[string]json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.JSONEq(t, `[]`, string(envelope.Data["products"]), target)
			assert.JSONEq(t, `[]`, string(envelope.Data["pickup_locations"]), target)
			assert.JSONEq(t, `[]`, string(envelope.Data["farms"]), target)
			assert.JSONEq(t, `null`, string(envelope.Data["location"]), target)
		}
		assert.Zero(t, geocoder.calls)
		assert.Zero(t, reader.calls)
	})
}

func TestHealth(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": fakePinger{}, "redis": fakePinger{}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": fakePinger{}, "redis": fakePinger{err: errors.New("refused")}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"refused"`)
}
