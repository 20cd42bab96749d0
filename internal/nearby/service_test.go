package nearby

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
)

type fakeReader struct {
	products []models.Product
	byID     map[uuid.UUID]*models.Product
	err      error
	filters  []catalog.ProductFilter
}

func (f *fakeReader) FindActiveProducts(_ context.Context, filter catalog.ProductFilter) ([]models.Product, error) {
	f.filters = append(f.filters, filter)
	return f.products, f.err
}

func (f *fakeReader) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func standAt(name string, lat float64) *models.MarketStand {
	lng := 0.0
	return &models.MarketStand{ID: uuid.New(), Name: name, Latitude: &lat, Longitude: &lng, IsActive: true}
}

func product(name string, stand *models.MarketStand) models.Product {
	return models.Product{
		ID:          uuid.New(),
		Name:        name,
		Inventory:   3,
		IsActive:    true,
		Status:      enums.ProductStatusApproved,
		MarketStand: stand,
	}
}

func newTestService(t *testing.T, reader ProductReader) *Service {
	t.Helper()
	engine := ranking.NewEngine(time.UTC, ranking.WithClock(func() time.Time {
		return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	}))
	svc, err := NewService(reader, engine, Options{}, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestGetNearbyProductsTopThreeByDistance(t *testing.T) {
	viewed := product("Viewed", standAt("Home", 0))
	reader := &fakeReader{products: []models.Product{
		product("D", standAt("d", 4)),
		product("A", standAt("a", 1)),
		viewed,
		product("NoCoords", &models.MarketStand{ID: uuid.New(), Name: "x", IsActive: true}),
		product("C", standAt("c", 3)),
		product("B", standAt("b", 2)),
	}}
	svc := newTestService(t, reader)

	got := svc.GetNearbyProducts(context.Background(), viewed.ID, geo.Coordinate{})

	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
	assert.Equal(t, "C", got[2].Name)

	require.Len(t, reader.filters, 1)
	require.NotNil(t, reader.filters[0].ExcludeProductID)
	assert.Equal(t, viewed.ID, *reader.filters[0].ExcludeProductID)
}

func TestGetNearbyProductsIgnoresRadius(t *testing.T) {
	// Roughly 1100 km away, well outside any local radius.
	reader := &fakeReader{products: []models.Product{product("Far", standAt("far", 10))}}
	svc := newTestService(t, reader)

	got := svc.GetNearbyProducts(context.Background(), uuid.New(), geo.Coordinate{})

	require.Len(t, got, 1)
	assert.Equal(t, "Far", got[0].Name)
}

func TestGetNearbyProductsCatalogFailure(t *testing.T) {
	svc := newTestService(t, &fakeReader{err: errors.New("db down")})

	got := svc.GetNearbyProducts(context.Background(), uuid.New(), geo.Coordinate{})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReferenceFor(t *testing.T) {
	withStand := product("Eggs", standAt("Stand", 12.5))
	noCoords := product("Jam", &models.MarketStand{ID: uuid.New(), Name: "x", IsActive: true})
	listed := product("Honey", nil)
	crossStand := standAt("Cross", 7)
	listed.StandListings = []models.ProductStandListing{{ID: uuid.New(), IsActive: true, MarketStand: crossStand}}

	reader := &fakeReader{byID: map[uuid.UUID]*models.Product{
		withStand.ID: &withStand,
		noCoords.ID:  &noCoords,
		listed.ID:    &listed,
	}}
	svc := newTestService(t, reader)

	ref, err := svc.ReferenceFor(context.Background(), withStand.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, 12.5, ref.Lat)

	ref, err = svc.ReferenceFor(context.Background(), listed.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, 7.0, ref.Lat)

	ref, err = svc.ReferenceFor(context.Background(), noCoords.ID)
	require.NoError(t, err)
	assert.Nil(t, ref)

	_, err = svc.ReferenceFor(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
