package ranking

import (
	"sort"
	"time"

	"github.com/angelmondragon/farmstand-backend/internal/availability"
	"github.com/angelmondragon/farmstand-backend/internal/fulfillment"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
)

const (
	// LocalRadiusZipCodeKm is roughly 200 miles; zip centroids are imprecise.
	LocalRadiusZipCodeKm = 321.87
	// LocalRadiusBrowserKm is roughly 150 miles.
	LocalRadiusBrowserKm = 241.4
	// MinLocalResults is the first-page size below which exploratory results are appended.
	MinLocalResults = 12
)

// Engine turns catalog rows into ranked products. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine that evaluates hours and delivery days in loc.
func NewEngine(loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the engine clock in the market time zone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// Rank transforms, sorts and partitions a product batch for the given page.
func (e *Engine) Rank(products []models.Product, shopper *ShopperLocation, page enums.PageKind) []RankedProduct {
	now := e.Now()
	ranked := e.transformAll(products, shopper, now)
	SortRanked(ranked, shopper.HasCoords(), now)
	if !shopper.HasCoords() {
		return ranked
	}

	local, exploratory := Partition(ranked, shopper.LocalRadiusKm())
	if page == enums.PageKindContinuation {
		return exploratory
	}
	if len(local) < MinLocalResults {
		return append(local, exploratory...)
	}
	return local
}

// RankUnpartitioned transforms and sorts a batch without the local/exploratory split.
func (e *Engine) RankUnpartitioned(products []models.Product, shopper *ShopperLocation) []RankedProduct {
	now := e.Now()
	ranked := e.transformAll(products, shopper, now)
	SortRanked(ranked, shopper.HasCoords(), now)
	return ranked
}

// Nearest ranks products by distance from ref alone and returns at most limit of them.
// Products without a measurable pickup location are dropped.
func (e *Engine) Nearest(products []models.Product, ref geo.Coordinate, limit int) []RankedProduct {
	shopper := &ShopperLocation{Coords: &ref, Source: enums.LocationSourceBrowser}
	ranked := e.TransformAll(products, shopper)
	measured := make([]RankedProduct, 0, len(ranked))
	for _, p := range ranked {
		if p.NearestPickupDistanceKm != nil {
			measured = append(measured, p)
		}
	}
	sort.SliceStable(measured, func(i, j int) bool {
		return *measured[i].NearestPickupDistanceKm < *measured[j].NearestPickupDistanceKm
	})
	if limit > 0 && len(measured) > limit {
		measured = measured[:limit]
	}
	return measured
}

// TransformAll applies Transform to every product, preserving input order.
func (e *Engine) TransformAll(products []models.Product, shopper *ShopperLocation) []RankedProduct {
	return e.transformAll(products, shopper, e.Now())
}

func (e *Engine) transformAll(products []models.Product, shopper *ShopperLocation, now time.Time) []RankedProduct {
	ranked := make([]RankedProduct, 0, len(products))
	for i := range products {
		ranked = append(ranked, e.transform(&products[i], shopper, now))
	}
	return ranked
}

// Transform computes distances, delivery eligibility and the badge for one product.
func (e *Engine) Transform(product *models.Product, shopper *ShopperLocation) RankedProduct {
	return e.transform(product, shopper, e.now().In(e.loc))
}

func (e *Engine) transform(product *models.Product, shopper *ShopperLocation, now time.Time) RankedProduct {
	res := fulfillment.Resolve(product)

	locations := make([]LocationDistance, 0, len(res.PickupLocations))
	for _, loc := range res.PickupLocations {
		entry := LocationDistance{Location: loc}
		if shopper.HasCoords() {
			if d := geo.DistanceBetween(shopper.Coords, loc.Coordinate); d != nil {
				miles := geo.KmToMiles(*d)
				entry.DistanceKm = d
				entry.DistanceMiles = &miles
			}
		}
		locations = append(locations, entry)
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return lessDistance(locations[i].DistanceKm, locations[j].DistanceKm)
	})

	var nearest *float64
	if len(locations) > 0 && locations[0].DistanceKm != nil {
		d := *locations[0].DistanceKm
		nearest = &d
	}

	eligibility := matchDelivery(res.DeliveryZones, shopper.zip())
	deliveryDays := res.AllDeliveryDays()
	if eligibility != nil && eligibility.IsEligible {
		deliveryDays = eligibility.DeliveryDays
	}

	badge := availability.CalculateBadge(availability.Facts{
		AvailableFrom:           product.AvailableFrom,
		AvailableUntil:          product.AvailableUntil,
		TotalInventory:          product.Inventory,
		InventoryUpdatedAt:      product.InventoryUpdatedAt,
		UpdatedAt:               product.UpdatedAt,
		HasPickupLocation:       res.HasPickup(),
		HasDelivery:             res.HasDelivery(),
		IsPickupLocationOpenNow: res.OpenNow(now),
		DeliveryDays:            deliveryDays,
	}, now)

	zones := res.DeliveryZones
	if zones == nil {
		zones = []fulfillment.DeliveryZone{}
	}

	return RankedProduct{
		ID:                      product.ID,
		FarmID:                  product.FarmID,
		Name:                    product.Name,
		Description:             product.Description,
		PriceCents:              product.PriceCents,
		Images:                  nonNil(product.Images),
		Tags:                    nonNil(product.Tags),
		Inventory:               product.Inventory,
		InventoryUpdatedAt:      product.InventoryUpdatedAt,
		IsActive:                product.IsActive,
		Status:                  product.Status,
		AvailableFrom:           product.AvailableFrom,
		AvailableUntil:          product.AvailableUntil,
		CreatedAt:               product.CreatedAt,
		UpdatedAt:               product.UpdatedAt,
		NearestPickupDistanceKm: nearest,
		AllPickupLocations:      locations,
		DeliveryZones:           zones,
		DeliveryEligibility:     eligibility,
		AvailabilityBadge:       badge,
		AvailabilityLabel:       badge.Label(),
	}
}

// matchDelivery walks zones in listing order and stops at the first zip match.
// Returns nil when there is no zip or the product has no zones.
func matchDelivery(zones []fulfillment.DeliveryZone, zip string) *DeliveryEligibility {
	if zip == "" || len(zones) == 0 {
		return nil
	}
	for _, zone := range zones {
		if !zone.CoversZip(zip) {
			continue
		}
		return &DeliveryEligibility{
			IsEligible:                 true,
			ZoneID:                     zone.ID,
			ZoneName:                   zone.Name,
			FeeCents:                   zone.FeeCents,
			MinimumOrderCents:          zone.MinimumOrderCents,
			FreeDeliveryThresholdCents: zone.FreeDeliveryThresholdCents,
			DeliveryDays:               zone.DeliveryDays,
		}
	}
	return &DeliveryEligibility{IsEligible: false, DeliveryDays: []string{}}
}

// SortRanked orders by availability tier as of now, then by nearest distance (nulls last)
// when the shopper has coordinates, otherwise by most recently updated. The sort is stable.
func SortRanked(ranked []RankedProduct, byDistance bool, now time.Time) {
	sort.SliceStable(ranked, func(i, j int) bool {
		ti := availability.Tier(ranked[i].AvailabilityBadge, ranked[i].AvailableFrom, now)
		tj := availability.Tier(ranked[j].AvailabilityBadge, ranked[j].AvailableFrom, now)
		if ti != tj {
			return ti < tj
		}
		if byDistance {
			return lessDistance(ranked[i].NearestPickupDistanceKm, ranked[j].NearestPickupDistanceKm)
		}
		return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
	})
}

// Partition splits a sorted list into products within radiusKm (or deliverable to the
// shopper) and the remainder, keeping relative order.
func Partition(ranked []RankedProduct, radiusKm float64) (local, exploratory []RankedProduct) {
	local = make([]RankedProduct, 0, len(ranked))
	exploratory = make([]RankedProduct, 0)
	for _, p := range ranked {
		within := p.NearestPickupDistanceKm != nil && *p.NearestPickupDistanceKm <= radiusKm
		if within || p.IsDeliveryEligible() {
			local = append(local, p)
			continue
		}
		exploratory = append(exploratory, p)
	}
	return local, exploratory
}

// lessDistance orders known distances ascending with nil after every known value.
func lessDistance(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
