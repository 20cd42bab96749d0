package fulfillment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/types"
)

// PickupLocation is a candidate stand where a product can be collected.
type PickupLocation struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	LocationName string               `json:"location_name"`
	Coordinate   *geo.Coordinate      `json:"coordinate"`
	IsActive     bool                 `json:"is_active"`
	IsPrimary    bool                 `json:"is_primary"`
	Hours        types.OperatingHours `json:"hours,omitempty"`
}

// DeliveryZone is a candidate coverage area a product can be delivered into.
type DeliveryZone struct {
	ID                         uuid.UUID `json:"id"`
	Name                       string    `json:"name"`
	IsActive                   bool      `json:"is_active"`
	IsPrimary                  bool      `json:"is_primary"`
	ZipCodes                   []string  `json:"zip_codes"`
	Cities                     []string  `json:"cities"`
	States                     []string  `json:"states"`
	DeliveryDays               []string  `json:"delivery_days"`
	ScheduledDates             []string  `json:"scheduled_dates,omitempty"`
	FeeCents                   int       `json:"fee_cents"`
	FreeDeliveryThresholdCents *int      `json:"free_delivery_threshold_cents"`
	MinimumOrderCents          int       `json:"minimum_order_cents"`
}

// CoversZip reports whether the zone's zip set contains zip.
func (z DeliveryZone) CoversZip(zip string) bool {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return false
	}
	for _, candidate := range z.ZipCodes {
		if strings.TrimSpace(candidate) == zip {
			return true
		}
	}
	return false
}

// Resolution holds the deduplicated candidate sets for one product, in listing order.
type Resolution struct {
	PickupLocations []PickupLocation
	DeliveryZones   []DeliveryZone
}

// HasPickup reports whether at least one pickup location resolved.
func (r Resolution) HasPickup() bool { return len(r.PickupLocations) > 0 }

// HasDelivery reports whether at least one delivery zone resolved.
func (r Resolution) HasDelivery() bool { return len(r.DeliveryZones) > 0 }

// OpenNow is true when any location is open at now, false when locations publish hours
// but none are open, and nil when no location publishes hours.
func (r Resolution) OpenNow(now time.Time) *bool {
	known := false
	for _, loc := range r.PickupLocations {
		if len(loc.Hours) == 0 {
			continue
		}
		known = true
		if loc.Hours.IsOpenAt(now) {
			open := true
			return &open
		}
	}
	if !known {
		return nil
	}
	closed := false
	return &closed
}

// AllDeliveryDays unions the delivery days of every resolved zone, preserving first-seen order.
func (r Resolution) AllDeliveryDays() []string {
	seen := make(map[string]struct{})
	var days []string
	for _, zone := range r.DeliveryZones {
		for _, day := range zone.DeliveryDays {
			key := strings.ToLower(strings.TrimSpace(day))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			days = append(days, day)
		}
	}
	return days
}

// Resolve builds the pickup and delivery candidate sets for a product. Missing relations
// yield empty sets.
func Resolve(product *models.Product) Resolution {
	var res Resolution
	if product == nil {
		return res
	}

	pickupSeen := make(map[uuid.UUID]struct{})
	if stand := product.MarketStand; stand != nil && stand.HasCoordinates() {
		loc := pickupFromStand(stand)
		loc.IsPrimary = true
		res.PickupLocations = append(res.PickupLocations, loc)
		pickupSeen[stand.ID] = struct{}{}
	}
	for _, listing := range product.StandListings {
		stand := listing.MarketStand
		if !listing.IsActive || stand == nil || !stand.IsActive {
			continue
		}
		if _, dup := pickupSeen[stand.ID]; dup {
			continue
		}
		pickupSeen[stand.ID] = struct{}{}
		res.PickupLocations = append(res.PickupLocations, pickupFromStand(stand))
	}

	zoneSeen := make(map[uuid.UUID]struct{})
	if zone := product.DeliveryZone; product.DeliveryAvailable && zone != nil && zone.IsActive {
		candidate := zoneFromModel(zone)
		candidate.IsPrimary = true
		res.DeliveryZones = append(res.DeliveryZones, candidate)
		zoneSeen[zone.ID] = struct{}{}
	}
	for _, listing := range product.DeliveryListings {
		zone := listing.DeliveryZone
		if !listing.IsActive || zone == nil || !zone.IsActive {
			continue
		}
		if _, dup := zoneSeen[zone.ID]; dup {
			continue
		}
		zoneSeen[zone.ID] = struct{}{}
		res.DeliveryZones = append(res.DeliveryZones, zoneFromModel(zone))
	}

	return res
}

func pickupFromStand(stand *models.MarketStand) PickupLocation {
	return PickupLocation{
		ID:           stand.ID,
		Name:         stand.Name,
		LocationName: stand.LocationName,
		Coordinate:   geo.NewCoordinate(stand.Latitude, stand.Longitude),
		IsActive:     stand.IsActive,
		Hours:        stand.Hours,
	}
}

func zoneFromModel(zone *models.DeliveryZone) DeliveryZone {
	return DeliveryZone{
		ID:                         zone.ID,
		Name:                       zone.Name,
		IsActive:                   zone.IsActive,
		ZipCodes:                   cloneStrings(zone.ZipCodes),
		Cities:                     cloneStrings(zone.Cities),
		States:                     cloneStrings(zone.States),
		DeliveryDays:               cloneStrings(zone.DeliveryDays),
		ScheduledDates:             cloneStrings(zone.ScheduledDates),
		FeeCents:                   zone.DeliveryFeeCents,
		FreeDeliveryThresholdCents: zone.FreeDeliveryThresholdCents,
		MinimumOrderCents:          zone.MinimumOrderCents,
	}
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
