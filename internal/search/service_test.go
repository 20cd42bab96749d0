package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/types"
)

// One degree of latitude is roughly 111.2 km.
const kmPerDegree = 111.19

type fakeGeocoder struct {
	point *maps.LatLng
	err   error
	calls int32
}

func (g *fakeGeocoder) GeocodeZip(_ context.Context, _ string) (*maps.LatLng, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.point, g.err
}

type fakeReader struct {
	products   []models.Product
	stands     []models.MarketStand
	farms      []models.Farm
	productErr error
	standErr   error
	farmErr    error
	calls      int32
}

func (f *fakeReader) FindActiveProducts(context.Context, catalog.ProductFilter) ([]models.Product, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.products, f.productErr
}

func (f *fakeReader) ListActiveStands(context.Context, int) ([]models.MarketStand, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.stands, f.standErr
}

func (f *fakeReader) ListActiveFarms(context.Context, int) ([]models.Farm, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.farms, f.farmErr
}

func ptr[T any](v T) *T { return &v }

func standAt(name string, km float64) models.MarketStand {
	return models.MarketStand{
		ID:        uuid.New(),
		Name:      name,
		Latitude:  ptr(km / kmPerDegree),
		Longitude: ptr(0.0),
		IsActive:  true,
	}
}

func productAt(name string, km float64) models.Product {
	stand := standAt(name+" Stand", km)
	return models.Product{
		ID:          uuid.New(),
		Name:        name,
		Inventory:   4,
		IsActive:    true,
		Status:      enums.ProductStatusApproved,
		MarketStand: &stand,
	}
}

func newTestService(t *testing.T, reader Reader, geocoder maps.ZipGeocoder) *Service {
	t.Helper()
	engine := ranking.NewEngine(time.UTC, ranking.WithClock(func() time.Time {
		return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	}))
	svc, err := NewService(reader, geocoder, engine, Options{}, nil, nil)
	require.NoError(t, err)
	return svc
}

func origin() *maps.LatLng { return &maps.LatLng{Latitude: 0, Longitude: 0} }

func assertEmpty(t *testing.T, result Result) {
	t.Helper()
	assert.NotNil(t, result.Products)
	assert.NotNil(t, result.PickupLocations)
	assert.NotNil(t, result.Farms)
	assert.Empty(t, result.Products)
	assert.Empty(t, result.PickupLocations)
	assert.Empty(t, result.Farms)
	assert.Nil(t, result.Location)
}

func TestSearchUnknownZipReturnsEmptyResult(t *testing.T) {
	reader := &fakeReader{products: []models.Product{productAt("Kale", 1)}}
	svc := newTestService(t, reader, &fakeGeocoder{})

	result := svc.Search(context.Background(), "00000", "")

	assertEmpty(t, result)
	assert.Zero(t, atomic.LoadInt32(&reader.calls))
}

func TestSearchGeocodeErrorReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t, &fakeReader{}, &fakeGeocoder{err: errors.New("quota exceeded")})

	assertEmpty(t, svc.Search(context.Background(), "78701", "eggs"))
}

func TestSearchInvalidZipSkipsGeocoder(t *testing.T) {
	geocoder := &fakeGeocoder{point: origin()}
	svc := newTestService(t, &fakeReader{}, geocoder)

	for _, zip := range []string{"", "abcde", "1234", "123456"} {
		assertEmpty(t, svc.Search(context.Background(), zip, ""))
	}
	assert.Zero(t, atomic.LoadInt32(&geocoder.calls))
}

func TestSearchFiltersByRadiusAndSortsByDistance(t *testing.T) {
	deliverable := productAt("Honey", 900)
	deliverable.DeliveryAvailable = true
	deliverable.DeliveryZone = &models.DeliveryZone{
		ID:           uuid.New(),
		Name:         "Metro",
		IsActive:     true,
		ZipCodes:     pq.StringArray{"78701"},
		DeliveryDays: pq.StringArray{"saturday"},
	}

	reader := &fakeReader{
		products: []models.Product{
			productAt("Far Squash", 400),
			productAt("Kale", 50),
			productAt("Eggs", 10),
			deliverable,
		},
		stands: []models.MarketStand{standAt("North", 200), standAt("Near", 5), standAt("Too Far", 330)},
		farms: []models.Farm{
			{ID: uuid.New(), Name: "Outside", Latitude: ptr(500 / kmPerDegree), Longitude: ptr(0.0), IsActive: true},
			{ID: uuid.New(), Name: "Green Acres", Latitude: ptr(30 / kmPerDegree), Longitude: ptr(0.0), IsActive: true},
			{ID: uuid.New(), Name: "No Coords", IsActive: true},
		},
	}
	svc := newTestService(t, reader, &fakeGeocoder{point: origin()})

	result := svc.Search(context.Background(), "78701", "")

	require.NotNil(t, result.Location)
	names := []string{}
	for _, p := range result.Products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Eggs", "Kale", "Honey"}, names)
	assert.True(t, result.Products[2].IsDeliveryEligible())

	require.Len(t, result.PickupLocations, 2)
	assert.Equal(t, "Near", result.PickupLocations[0].Name)
	assert.Equal(t, "North", result.PickupLocations[1].Name)
	assert.InDelta(t, 5, result.PickupLocations[0].DistanceKm, 0.1)

	require.Len(t, result.Farms, 1)
	assert.Equal(t, "Green Acres", result.Farms[0].Name)
}

func TestSearchTextFilterAppliesLastAndPreservesOrder(t *testing.T) {
	desc := "Pasture raised EGGS"
	eggs := productAt("Dozen", 20)
	eggs.Description = &desc
	tagged := productAt("Greens Box", 5)
	tagged.Tags = pq.StringArray{"organic", "eggs-free"}
	byStand := productAt("Butter", 1)
	byStand.MarketStand.Name = "Eggleston Stand"

	reader := &fakeReader{
		products: []models.Product{eggs, tagged, byStand, productAt("Carrots", 2)},
		stands:   []models.MarketStand{standAt("Egg Barn", 3), standAt("Carrot Hut", 1)},
		farms: []models.Farm{
			{ID: uuid.New(), Name: "Sunny Farm", Tags: pq.StringArray{"Eggs"}, Latitude: ptr(0.1), Longitude: ptr(0.0)},
			{ID: uuid.New(), Name: "Dairy Co", Latitude: ptr(0.05), Longitude: ptr(0.0)},
		},
	}
	svc := newTestService(t, reader, &fakeGeocoder{point: origin()})

	result := svc.Search(context.Background(), "78701", "  Egg ")

	names := []string{}
	for _, p := range result.Products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Butter", "Greens Box", "Dozen"}, names)
	require.Len(t, result.PickupLocations, 1)
	assert.Equal(t, "Egg Barn", result.PickupLocations[0].Name)
	require.Len(t, result.Farms, 1)
	assert.Equal(t, "Sunny Farm", result.Farms[0].Name)
	require.NotNil(t, result.Location)
}

func TestSearchDegradesEachKindIndependently(t *testing.T) {
	reader := &fakeReader{
		products:   []models.Product{productAt("Kale", 1)},
		productErr: errors.New("statement timeout"),
		stands:     []models.MarketStand{standAt("Near", 1)},
		farmErr:    errors.New("connection reset"),
	}
	svc := newTestService(t, reader, &fakeGeocoder{point: origin()})

	result := svc.Search(context.Background(), "78701", "")

	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	assert.Len(t, result.PickupLocations, 1)
	assert.NotNil(t, result.Farms)
	assert.Empty(t, result.Farms)
	assert.NotNil(t, result.Location)
}

func TestSearchStandOpenNow(t *testing.T) {
	open := standAt("Open", 1)
	open.Hours = types.OperatingHours{"saturday": {Open: "08:00", Close: "14:00"}}
	closed := standAt("Closed", 2)
	closed.Hours = types.OperatingHours{"saturday": {Closed: true}}
	unknown := standAt("Unknown", 3)

	reader := &fakeReader{stands: []models.MarketStand{open, closed, unknown}}
	svc := newTestService(t, reader, &fakeGeocoder{point: origin()})

	result := svc.Search(context.Background(), "78701", "")

	require.Len(t, result.PickupLocations, 3)
	require.NotNil(t, result.PickupLocations[0].IsOpenNow)
	assert.True(t, *result.PickupLocations[0].IsOpenNow)
	require.NotNil(t, result.PickupLocations[1].IsOpenNow)
	assert.False(t, *result.PickupLocations[1].IsOpenNow)
	assert.Nil(t, result.PickupLocations[2].IsOpenNow)
}
