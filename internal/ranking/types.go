package ranking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstand-backend/internal/fulfillment"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
)

// ShopperLocation is where the shopper is browsing from. Coords may be nil when only a
// zip code is known; the zip is still used for delivery matching.
type ShopperLocation struct {
	Coords     *geo.Coordinate      `json:"coords"`
	Accuracy   *float64             `json:"accuracy,omitempty"`
	CapturedAt *time.Time           `json:"captured_at,omitempty"`
	Source     enums.LocationSource `json:"source"`
	ZipCode    string               `json:"zip_code,omitempty"`
}

// HasCoords reports whether distances can be measured from this location.
func (s *ShopperLocation) HasCoords() bool {
	return s != nil && s.Coords != nil
}

func (s *ShopperLocation) zip() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.ZipCode)
}

// LocalRadiusKm is the local/exploratory cut-off for this location's source.
func (s *ShopperLocation) LocalRadiusKm() float64 {
	if s != nil && s.Source == enums.LocationSourceZipCode {
		return LocalRadiusZipCodeKm
	}
	return LocalRadiusBrowserKm
}

// LocationDistance pairs a pickup location with its distance from the shopper.
type LocationDistance struct {
	Location      fulfillment.PickupLocation `json:"location"`
	DistanceKm    *float64                   `json:"distance_km"`
	DistanceMiles *float64                   `json:"distance_miles"`
}

// DeliveryEligibility is the outcome of matching the shopper's zip against a product's zones.
type DeliveryEligibility struct {
	IsEligible                 bool      `json:"is_eligible"`
	ZoneID                     uuid.UUID `json:"zone_id,omitempty"`
	ZoneName                   string    `json:"zone_name,omitempty"`
	FeeCents                   int       `json:"fee_cents"`
	MinimumOrderCents          int       `json:"minimum_order_cents"`
	FreeDeliveryThresholdCents *int      `json:"free_delivery_threshold_cents"`
	DeliveryDays               []string  `json:"delivery_days"`
}

// RankedProduct is a catalog product decorated with distance, delivery and badge facts.
type RankedProduct struct {
	ID                 uuid.UUID           `json:"id"`
	FarmID             *uuid.UUID          `json:"farm_id,omitempty"`
	Name               string              `json:"name"`
	Description        *string             `json:"description"`
	PriceCents         int                 `json:"price_cents"`
	Images             []string            `json:"images"`
	Tags               []string            `json:"tags"`
	Inventory          int                 `json:"inventory"`
	InventoryUpdatedAt *time.Time          `json:"inventory_updated_at"`
	IsActive           bool                `json:"is_active"`
	Status             enums.ProductStatus `json:"status"`
	AvailableFrom      *time.Time          `json:"available_from"`
	AvailableUntil     *time.Time          `json:"available_until"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	NearestPickupDistanceKm *float64                   `json:"nearest_pickup_distance_km"`
	AllPickupLocations      []LocationDistance         `json:"all_pickup_locations"`
	DeliveryZones           []fulfillment.DeliveryZone `json:"delivery_zones"`
	DeliveryEligibility     *DeliveryEligibility       `json:"delivery_eligibility"`
	AvailabilityBadge       enums.AvailabilityBadge    `json:"availability_badge"`
	AvailabilityLabel       string                     `json:"availability_label"`
}

// IsDeliveryEligible reports whether the shopper's zip matched one of the product's zones.
func (p RankedProduct) IsDeliveryEligible() bool {
	return p.DeliveryEligibility != nil && p.DeliveryEligibility.IsEligible
}

// NearestPickupName returns the name of the closest pickup location, or the first listed
// location when no distances are known.
func (p RankedProduct) NearestPickupName() string {
	if len(p.AllPickupLocations) == 0 {
		return ""
	}
	return p.AllPickupLocations[0].Location.Name
}
