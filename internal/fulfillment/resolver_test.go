package fulfillment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func stand(name string, lat, lng *float64) *models.MarketStand {
	return &models.MarketStand{ID: uuid.New(), Name: name, Latitude: lat, Longitude: lng, IsActive: true}
}

func zone(name string, zips ...string) *models.DeliveryZone {
	return &models.DeliveryZone{ID: uuid.New(), Name: name, IsActive: true, ZipCodes: pq.StringArray(zips)}
}

func TestResolveDeduplicatesPrimaryAndCrossListedStand(t *testing.T) {
	primary := stand("Main St", ptr(30.0), ptr(-97.0))
	other := stand("Farmers Market", ptr(30.1), ptr(-97.1))

	product := &models.Product{
		MarketStand: primary,
		StandListings: []models.ProductStandListing{
			{IsActive: true, MarketStand: primary},
			{IsActive: true, MarketStand: other},
			{IsActive: true, MarketStand: other},
		},
	}

	res := Resolve(product)
	require.Len(t, res.PickupLocations, 2)
	assert.Equal(t, primary.ID, res.PickupLocations[0].ID)
	assert.True(t, res.PickupLocations[0].IsPrimary)
	assert.Equal(t, other.ID, res.PickupLocations[1].ID)
	assert.False(t, res.PickupLocations[1].IsPrimary)
}

func TestResolveSkipsPrimaryWithoutCoordinates(t *testing.T) {
	primary := stand("No GPS", nil, ptr(-97.0))
	product := &models.Product{
		MarketStand:   primary,
		StandListings: []models.ProductStandListing{{IsActive: true, MarketStand: primary}},
	}

	res := Resolve(product)
	require.Len(t, res.PickupLocations, 1, "cross-listing may still add the stand")
	assert.Nil(t, res.PickupLocations[0].Coordinate)
	assert.False(t, res.PickupLocations[0].IsPrimary)
}

func TestResolveSkipsInactiveListings(t *testing.T) {
	inactiveStand := stand("Closed", ptr(1.0), ptr(1.0))
	inactiveStand.IsActive = false
	product := &models.Product{
		StandListings: []models.ProductStandListing{
			{IsActive: false, MarketStand: stand("Paused", ptr(1.0), ptr(1.0))},
			{IsActive: true, MarketStand: inactiveStand},
			{IsActive: true},
		},
		DeliveryListings: []models.ProductDeliveryListing{
			{IsActive: false, DeliveryZone: zone("Paused", "78701")},
			{IsActive: true},
		},
	}

	res := Resolve(product)
	assert.Empty(t, res.PickupLocations)
	assert.Empty(t, res.DeliveryZones)
	assert.False(t, res.HasPickup())
	assert.False(t, res.HasDelivery())
}

func TestResolveDeliveryZones(t *testing.T) {
	primary := zone("Downtown", "78701")
	second := zone("Suburbs", "78759")

	t.Run("primary requires delivery flag", func(t *testing.T) {
		res := Resolve(&models.Product{DeliveryZone: primary, DeliveryAvailable: false})
		assert.Empty(t, res.DeliveryZones)
	})

	t.Run("primary first then listings deduplicated", func(t *testing.T) {
		res := Resolve(&models.Product{
			DeliveryAvailable: true,
			DeliveryZone:      primary,
			DeliveryListings: []models.ProductDeliveryListing{
				{IsActive: true, DeliveryZone: primary},
				{IsActive: true, DeliveryZone: second},
			},
		})
		require.Len(t, res.DeliveryZones, 2)
		assert.Equal(t, "Downtown", res.DeliveryZones[0].Name)
		assert.True(t, res.DeliveryZones[0].IsPrimary)
		assert.Equal(t, "Suburbs", res.DeliveryZones[1].Name)
	})

	t.Run("listing adds zone when flag is off", func(t *testing.T) {
		res := Resolve(&models.Product{
			DeliveryZone:     primary,
			DeliveryListings: []models.ProductDeliveryListing{{IsActive: true, DeliveryZone: primary}},
		})
		require.Len(t, res.DeliveryZones, 1)
		assert.False(t, res.DeliveryZones[0].IsPrimary)
	})
}

func TestResolveNilProduct(t *testing.T) {
	res := Resolve(nil)
	assert.Empty(t, res.PickupLocations)
	assert.Empty(t, res.DeliveryZones)
}

func TestCoversZip(t *testing.T) {
	z := DeliveryZone{ZipCodes: []string{"78701", " 78702 "}}
	assert.True(t, z.CoversZip("78701"))
	assert.True(t, z.CoversZip("78702"))
	assert.False(t, z.CoversZip("78703"))
	assert.False(t, z.CoversZip(""))
}

func TestOpenNow(t *testing.T) {
	// 2026-10-17 is a Saturday.
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

	assert.Nil(t, Resolution{PickupLocations: []PickupLocation{{Name: "no hours"}}}.OpenNow(now))

	closed := Resolution{PickupLocations: []PickupLocation{
		{Hours: types.OperatingHours{"saturday": {Open: "12:00", Close: "16:00"}}},
	}}
	got := closed.OpenNow(now)
	require.NotNil(t, got)
	assert.False(t, *got)

	open := Resolution{PickupLocations: []PickupLocation{
		{Hours: types.OperatingHours{"saturday": {Open: "12:00", Close: "16:00"}}},
		{Hours: types.OperatingHours{"saturday": {Open: "08:00", Close: "12:00"}}},
	}}
	got = open.OpenNow(now)
	require.NotNil(t, got)
	assert.True(t, *got)
}

func TestAllDeliveryDays(t *testing.T) {
	res := Resolution{DeliveryZones: []DeliveryZone{
		{DeliveryDays: []string{"Monday", "Thursday"}},
		{DeliveryDays: []string{"thursday", "Saturday", ""}},
	}}
	assert.Equal(t, []string{"Monday", "Thursday", "Saturday"}, res.AllDeliveryDays())
}
