package maps

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeGeocoder struct {
	calls  int
	result *LatLng
	err    error
}

func (f *fakeGeocoder) GeocodeZip(context.Context, string) (*LatLng, error) {
	f.calls++
	return f.result, f.err
}

type fakeGeocodeCache struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	getErr   error
	setErr   error
	setCalls int
}

func newFakeGeocodeCache() *fakeGeocodeCache {
	return &fakeGeocodeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeGeocodeCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *fakeGeocodeCache) SetBytes(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = payload
	c.ttls[key] = ttl
	return nil
}

func (c *fakeGeocodeCache) GeocodeKey(zip string) string { return "geo:" + zip }

func TestCachedGeocoderCachesHits(t *testing.T) {
	next := &fakeGeocoder{result: &LatLng{Latitude: 30.27, Longitude: -97.74}}
	cache := newFakeGeocodeCache()
	geocoder := NewCachedGeocoder(next, cache, 24*time.Hour, nil)

	for i := 0; i < 3; i++ {
		loc, err := geocoder.GeocodeZip(context.Background(), "78701")
		if err != nil {
			t.Fatalf("geocode: %v", err)
		}
		if loc == nil || loc.Latitude != 30.27 {
			t.Fatalf("unexpected location %+v", loc)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if cache.ttls["geo:78701"] != 24*time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", cache.ttls["geo:78701"])
	}
}

func TestCachedGeocoderSkipsNegativeResults(t *testing.T) {
	next := &fakeGeocoder{}
	cache := newFakeGeocodeCache()
	geocoder := NewCachedGeocoder(next, cache, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if loc, err := geocoder.GeocodeZip(context.Background(), "00000"); loc != nil || err != nil {
			t.Fatalf("expected nil result, got %+v %v", loc, err)
		}
	}
	if cache.setCalls != 0 {
		t.Fatalf("negative results must not be cached")
	}
	if next.calls != 2 {
		t.Fatalf("expected upstream on every miss, got %d", next.calls)
	}
}

func TestCachedGeocoderFallsThroughOnCacheFaults(t *testing.T) {
	next := &fakeGeocoder{result: &LatLng{Latitude: 1, Longitude: 2}}
	cache := newFakeGeocodeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	geocoder := NewCachedGeocoder(next, cache, time.Hour, nil)

	loc, err := geocoder.GeocodeZip(context.Background(), "78701")
	if err != nil || loc == nil {
		t.Fatalf("cache faults should not fail the lookup, got %+v %v", loc, err)
	}
	if next.calls != 1 {
		t.Fatalf("expected upstream call, got %d", next.calls)
	}
}

func TestCachedGeocoderPropagatesUpstreamErrors(t *testing.T) {
	next := &fakeGeocoder{err: errors.New("quota exceeded")}
	geocoder := NewCachedGeocoder(next, newFakeGeocodeCache(), time.Hour, nil)

	if _, err := geocoder.GeocodeZip(context.Background(), "78701"); err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestCachedGeocoderCorruptPayload(t *testing.T) {
	next := &fakeGeocoder{result: &LatLng{Latitude: 5, Longitude: 6}}
	cache := newFakeGeocodeCache()
	cache.data["geo:78701"] = []byte("{not json")
	geocoder := NewCachedGeocoder(next, cache, time.Hour, nil)

	loc, err := geocoder.GeocodeZip(context.Background(), "78701")
	if err != nil || loc == nil || loc.Latitude != 5 {
		t.Fatalf("expected upstream result, got %+v %v", loc, err)
	}
}
