package availability

import (
	"strings"
	"time"

	"github.com/angelmondragon/farmstand-backend/pkg/enums"
)

// Facts are the inputs that decide a product's badge.
type Facts struct {
	AvailableFrom           *time.Time
	AvailableUntil          *time.Time
	TotalInventory          int
	InventoryUpdatedAt      *time.Time
	UpdatedAt               time.Time
	HasPickupLocation       bool
	HasDelivery             bool
	IsPickupLocationOpenNow *bool
	DeliveryDays            []string
}

// Tiers used when ordering ranked products; lower sorts first.
const (
	TierAvailable = 1
	TierPreOrder  = 2
	TierOther     = 3
)

// CalculateBadge applies the badge rules in priority order; the first match wins.
// now should already be in the market's time zone so weekday checks line up.
func CalculateBadge(f Facts, now time.Time) enums.AvailabilityBadge {
	switch {
	case f.TotalInventory <= 0:
		return enums.AvailabilityBadgeSoldOut
	case f.AvailableFrom != nil && f.AvailableFrom.After(now):
		return enums.AvailabilityBadgePreOrder
	case f.AvailableUntil != nil && f.AvailableUntil.Before(now):
		return enums.AvailabilityBadgeExpired
	case !f.HasPickupLocation && !f.HasDelivery:
		return enums.AvailabilityBadgeUnavailable
	case f.IsPickupLocationOpenNow != nil && *f.IsPickupLocationOpenNow:
		return enums.AvailabilityBadgeAvailableNow
	case f.HasDelivery && DeliversOn(f.DeliveryDays, now.Weekday()):
		return enums.AvailabilityBadgeAvailableNow
	default:
		return enums.AvailabilityBadgeAvailable
	}
}

// Tier decides a product's sort tier. A future availableFrom puts it in the pre-order
// tier whatever its stock; otherwise orderable badges sort first and sold-out, expired and
// unavailable products share the last tier.
func Tier(badge enums.AvailabilityBadge, availableFrom *time.Time, now time.Time) int {
	if availableFrom != nil && availableFrom.After(now) {
		return TierPreOrder
	}
	switch badge {
	case enums.AvailabilityBadgeAvailableNow, enums.AvailabilityBadgeAvailable:
		return TierAvailable
	default:
		return TierOther
	}
}

// DeliversOn matches weekday against day names, accepting full names or three-letter
// abbreviations in any case.
func DeliversOn(days []string, weekday time.Weekday) bool {
	full := strings.ToLower(weekday.String())
	short := full[:3]
	for _, day := range days {
		normalized := strings.ToLower(strings.TrimSpace(day))
		if normalized == full || normalized == short {
			return true
		}
	}
	return false
}
