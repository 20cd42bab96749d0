package maps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

// ZipGeocoder resolves zip codes to coordinates.
type ZipGeocoder interface {
	GeocodeZip(ctx context.Context, zip string) (*LatLng, error)
}

type geocodeCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	GeocodeKey(zip string) string
}

// CachedGeocoder puts a key/value cache in front of another geocoder. Cache faults fall
// through to the wrapped geocoder and unknown zips are never cached.
type CachedGeocoder struct {
	next  ZipGeocoder
	cache geocodeCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedGeocoder wraps next with cache; a nil cache disables caching.
func NewCachedGeocoder(next ZipGeocoder, cache geocodeCache, ttl time.Duration, logg *logger.Logger) *CachedGeocoder {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl, logg: logg}
}

// GeocodeZip returns the cached coordinate when present, otherwise asks the wrapped geocoder.
func (g *CachedGeocoder) GeocodeZip(ctx context.Context, zip string) (*LatLng, error) {
	zip = strings.TrimSpace(zip)
	if g.cache == nil {
		return g.next.GeocodeZip(ctx, zip)
	}

	logCtx := g.logg.WithField(ctx, "zip", zip)
	key := g.cache.GeocodeKey(zip)
	if payload, err := g.cache.GetBytes(ctx, key); err != nil {
		g.logg.WarnErr(logCtx, "geocode.cache_read_failed", err)
	} else if payload != nil {
		var cached LatLng
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		g.logg.Warn(logCtx, "geocode.cache_payload_invalid")
	}

	loc, err := g.next.GeocodeZip(ctx, zip)
	if err != nil || loc == nil {
		return loc, err
	}

	payload, err := json.Marshal(loc)
	if err == nil {
		err = g.cache.SetBytes(ctx, key, payload, g.ttl)
	}
	if err != nil {
		g.logg.WarnErr(logCtx, "geocode.cache_write_failed", err)
	}
	return loc, nil
}
