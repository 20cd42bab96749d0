package enums

import "fmt"

// AvailabilityBadge is the single status label rendered on a product card.
type AvailabilityBadge string

const (
	AvailabilityBadgeSoldOut      AvailabilityBadge = "sold_out"
	AvailabilityBadgePreOrder     AvailabilityBadge = "pre_order"
	AvailabilityBadgeExpired      AvailabilityBadge = "expired"
	AvailabilityBadgeUnavailable  AvailabilityBadge = "unavailable"
	AvailabilityBadgeAvailableNow AvailabilityBadge = "available_now"
	AvailabilityBadgeAvailable    AvailabilityBadge = "available"
)

var validAvailabilityBadges = []AvailabilityBadge{
	AvailabilityBadgeSoldOut,
	AvailabilityBadgePreOrder,
	AvailabilityBadgeExpired,
	AvailabilityBadgeUnavailable,
	AvailabilityBadgeAvailableNow,
	AvailabilityBadgeAvailable,
}

var availabilityBadgeLabels = map[AvailabilityBadge]string{
	AvailabilityBadgeSoldOut:      "Sold Out",
	AvailabilityBadgePreOrder:     "Pre-Order",
	AvailabilityBadgeExpired:      "No Longer Available",
	AvailabilityBadgeUnavailable:  "Unavailable",
	AvailabilityBadgeAvailableNow: "Available Now",
	AvailabilityBadgeAvailable:    "Available",
}

// String implements fmt.Stringer.
func (b AvailabilityBadge) String() string {
	return string(b)
}

// Label returns the display text for the badge.
func (b AvailabilityBadge) Label() string {
	return availabilityBadgeLabels[b]
}

// IsValid reports whether the value is a known AvailabilityBadge.
func (b AvailabilityBadge) IsValid() bool {
	for _, candidate := range validAvailabilityBadges {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseAvailabilityBadge converts raw input into an AvailabilityBadge.
func ParseAvailabilityBadge(value string) (AvailabilityBadge, error) {
	for _, candidate := range validAvailabilityBadges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability badge %q", value)
}
