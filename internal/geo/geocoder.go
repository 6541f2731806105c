// Package geo resolves Address nodes to coordinates and backfills the
// point property the geospatial index operates on.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ErrNoMatch means the geocoder has no coordinates for an address. The
// address is skipped, not failed.
var ErrNoMatch = errors.New("no geocoding match")

// Query is the structured address handed to a geocoder.
type Query struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

func (q Query) oneLine() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{q.Street, q.City, q.State, q.ZipCode, q.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Location struct {
	Latitude  float64
	Longitude float64
}

type Geocoder interface {
	Geocode(ctx context.Context, q Query) (Location, error)
}

// GoogleGeocoder resolves addresses through the Google Maps geocoding
// API.
type GoogleGeocoder struct {
	client *maps.Client
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, q Query) (Location, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: q.oneLine()})
	if err != nil {
		return Location{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	if len(results) == 0 {
		return Location{}, ErrNoMatch
	}
	loc := results[0].Geometry.Location
	return Location{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

// StaticGeocoder resolves city and state against a built-in table of
// city centroids. It needs no network and no key, which is enough for
// the demo data set.
type StaticGeocoder struct {
	table map[string]Location
}

func NewStaticGeocoder() *StaticGeocoder {
	return &StaticGeocoder{table: map[string]Location{
		"boston,ma":      {Latitude: 42.3601, Longitude: -71.0589},
		"quincy,ma":      {Latitude: 42.2529, Longitude: -71.0023},
		"easthampton,ma": {Latitude: 42.2602, Longitude: -72.6654},
		"new york,ny":    {Latitude: 40.7128, Longitude: -74.0060},
		"los angeles,ca": {Latitude: 34.0522, Longitude: -118.2437},
		"chicago,il":     {Latitude: 41.8781, Longitude: -87.6298},
	}}
}

func (s *StaticGeocoder) Geocode(ctx context.Context, q Query) (Location, error) {
	key := strings.ToLower(strings.TrimSpace(q.City)) + "," + strings.ToLower(strings.TrimSpace(q.State))
	if loc, ok := s.table[key]; ok {
		return loc, nil
	}
	return Location{}, ErrNoMatch
}
