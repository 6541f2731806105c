package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/agenthands/helix/internal/driver"
)

// Backfiller locates Address nodes without coordinates and geocodes
// them.
type Backfiller struct {
	Driver   driver.GraphDriver
	Geocoder Geocoder
	Log      *log.Logger
}

func NewBackfiller(d driver.GraphDriver, geocoder Geocoder, logger *log.Logger) *Backfiller {
	return &Backfiller{Driver: d, Geocoder: geocoder, Log: logger}
}

// Run geocodes every address missing a location point and returns how
// many it resolved. Addresses the geocoder cannot match are skipped.
// Addresses that already carry latitude and longitude keep them and only
// gain the point property.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	res, err := b.Driver.ExecuteQuery(ctx, driver.MissingLocationQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list addresses: %w", err)
	}

	var batch []driver.Statement
	for _, rec := range res.Records {
		uidVal, _ := rec.Get("uid")
		propsVal, _ := rec.Get("props")
		uid, _ := uidVal.(string)
		props, _ := propsVal.(map[string]any)
		if uid == "" || props == nil {
			continue
		}

		loc, err := b.resolve(ctx, props)
		if err != nil {
			if errors.Is(err, ErrNoMatch) {
				b.Log.Warn("address not geocodable, skipped",
					"uid", uid, "city", props["city"], "state", props["state"])
				continue
			}
			return 0, err
		}

		batch = append(batch, driver.Statement{
			Cypher: driver.SetLocationQuery,
			Params: map[string]any{
				"uid":       uid,
				"latitude":  loc.Latitude,
				"longitude": loc.Longitude,
			},
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if err := b.Driver.ExecuteInTx(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to store locations: %w", err)
	}
	b.Log.Info("addresses geocoded", "count", len(batch))
	return len(batch), nil
}

// resolve prefers coordinates already on the node over a fresh geocoder
// call.
func (b *Backfiller) resolve(ctx context.Context, props map[string]any) (Location, error) {
	lat, latOK := props["latitude"].(float64)
	lng, lngOK := props["longitude"].(float64)
	if latOK && lngOK {
		return Location{Latitude: lat, Longitude: lng}, nil
	}

	q := Query{
		Street:  asString(props["street"]),
		City:    asString(props["city"]),
		State:   asString(props["state"]),
		ZipCode: asString(props["zip_code"]),
		Country: asString(props["country"]),
	}
	return b.Geocoder.Geocode(ctx, q)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
