// Package geocode resolves free-text addresses to coordinates.
package geocode

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// Static resolves addresses against an in-memory gazetteer keyed by
// normalized place name. Lookups match on the longest known place name that
// appears in the address, so "12 Main St, Portland, OR" resolves via
// "portland".
type Static struct {
	mu     sync.RWMutex
	places map[string]schema.GeoPoint
}

// NewStatic builds a geocoder pre-seeded with a small set of US metro areas.
// Callers with their own reference data can Seed over or alongside these.
func NewStatic() *Static {
	s := &Static{places: make(map[string]schema.GeoPoint)}
	s.Seed(defaultPlaces)
	return s
}

// Seed adds or replaces place entries. Keys are normalized before storage.
func (s *Static) Seed(places map[string]schema.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, pt := range places {
		s.places[normalize(name)] = pt
	}
}

// Geocode resolves address to coordinates. A miss returns a GeocodingError
// wrapping ErrUnknownPlace so callers can distinguish bad addresses from
// transport failures.
func (s *Static) Geocode(_ context.Context, address string) (schema.GeoPoint, error) {
	norm := normalize(address)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if pt, ok := s.places[norm]; ok {
		return pt, nil
	}

	// Substring match for full street addresses: prefer the longest known
	// place name contained in the address.
	var (
		best    schema.GeoPoint
		bestLen int
		found   bool
	)
	for name, pt := range s.places {
		if len(name) > bestLen && strings.Contains(norm, name) {
			best, bestLen, found = pt, len(name), true
		}
	}
	if found {
		return best, nil
	}
	return schema.GeoPoint{}, &contract.GeocodingError{Address: address, Err: contract.ErrUnknownPlace}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Limited wraps a geocoder with a client-side rate limit, for backends with
// usage quotas.
type Limited struct {
	inner   contract.Geocoder
	limiter *rate.Limiter
}

// NewLimited allows up to rps lookups per second with the given burst.
func NewLimited(inner contract.Geocoder, rps float64, burst int) *Limited {
	return &Limited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Geocode waits for limiter headroom, then delegates. A cancelled context
// surfaces as the wait error.
func (l *Limited) Geocode(ctx context.Context, address string) (schema.GeoPoint, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return schema.GeoPoint{}, err
	}
	return l.inner.Geocode(ctx, address)
}

// defaultPlaces is a compact gazetteer covering the metro areas used by the
// sample data and tests.
var defaultPlaces = map[string]schema.GeoPoint{
	"new york":      {Lat: 40.7128, Lng: -74.0060},
	"brooklyn":      {Lat: 40.6782, Lng: -73.9442},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437},
	"chicago":       {Lat: 41.8781, Lng: -87.6298},
	"houston":       {Lat: 29.7604, Lng: -95.3698},
	"phoenix":       {Lat: 33.4484, Lng: -112.0740},
	"philadelphia":  {Lat: 39.9526, Lng: -75.1652},
	"san antonio":   {Lat: 29.4241, Lng: -98.4936},
	"san diego":     {Lat: 32.7157, Lng: -117.1611},
	"dallas":        {Lat: 32.7767, Lng: -96.7970},
	"austin":        {Lat: 30.2672, Lng: -97.7431},
	"san jose":      {Lat: 37.3382, Lng: -121.8863},
	"san francisco": {Lat: 37.7749, Lng: -122.4194},
	"seattle":       {Lat: 47.6062, Lng: -122.3321},
	"portland":      {Lat: 45.5152, Lng: -122.6784},
	"denver":        {Lat: 39.7392, Lng: -104.9903},
	"boston":        {Lat: 42.3601, Lng: -71.0589},
	"atlanta":       {Lat: 33.7490, Lng: -84.3880},
	"miami":         {Lat: 25.7617, Lng: -80.1918},
	"minneapolis":   {Lat: 44.9778, Lng: -93.2650},
}
