package enums

import (
	"fmt"
	"strings"
)

// LocationSource records how a shopper location was obtained.
type LocationSource string

const (
	LocationSourceBrowser LocationSource = "browser"
	LocationSourceZipCode LocationSource = "zipcode"
)

var validLocationSources = []LocationSource{
	LocationSourceBrowser,
	LocationSourceZipCode,
}

// String implements fmt.Stringer.
func (s LocationSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LocationSource.
func (s LocationSource) IsValid() bool {
	for _, candidate := range validLocationSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLocationSource converts raw input into a LocationSource.
func ParseLocationSource(value string) (LocationSource, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLocationSources {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location source %q", value)
}

// PageKind tells the ranking engine whether the caller wants the first page or a follow-up.
type PageKind string

const (
	PageKindInitial      PageKind = "initial"
	PageKindContinuation PageKind = "continuation"
)

// String implements fmt.Stringer.
func (p PageKind) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PageKind.
func (p PageKind) IsValid() bool {
	return p == PageKindInitial || p == PageKindContinuation
}

// ParsePageKind converts raw input into a PageKind; empty input means the first page.
func ParsePageKind(value string) (PageKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return PageKindInitial, nil
	}
	kind := PageKind(normalized)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid page kind %q", value)
	}
	return kind, nil
}
