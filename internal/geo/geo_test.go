package geo

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/helix/internal/driver"
)

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestStaticGeocoderKnownCities(t *testing.T) {
	g := NewStaticGeocoder()

	loc, err := g.Geocode(context.Background(), Query{City: "BOSTON", State: "MA"})
	require.NoError(t, err)
	assert.Equal(t, 42.3601, loc.Latitude)
	assert.Equal(t, -71.0589, loc.Longitude)

	loc, err = g.Geocode(context.Background(), Query{City: "Quincy", State: "ma"})
	require.NoError(t, err)
	assert.Equal(t, 42.2529, loc.Latitude)

	_, err = g.Geocode(context.Background(), Query{City: "Springfield", State: "MA"})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestQueryOneLine(t *testing.T) {
	q := Query{Street: "300 CONGRESS ST STE 203", City: "QUINCY", State: "MA", ZipCode: "021690907", Country: "US"}
	assert.Equal(t, "300 CONGRESS ST STE 203, QUINCY, MA, 021690907, US", q.oneLine())

	assert.Equal(t, "QUINCY, MA", Query{City: "QUINCY", State: "MA"}.oneLine())
}

func addressesResult(rows ...map[string]any) neo4j.EagerResult {
	records := make([]*neo4j.Record, len(rows))
	for i, row := range rows {
		records[i] = &neo4j.Record{
			Keys:   []string{"uid", "props"},
			Values: []any{row["uid"], row["props"]},
		}
	}
	return neo4j.EagerResult{Records: records}
}

func TestBackfillGeocodesMissingAddresses(t *testing.T) {
	mock := &driver.MockDriver{Results: []neo4j.EagerResult{
		addressesResult(
			map[string]any{"uid": "w1", "props": map[string]any{
				"street": "10 MAIN ST", "city": "BOSTON", "state": "MA", "zip_code": "02110", "country": "US",
			}},
			map[string]any{"uid": "w2", "props": map[string]any{
				"street": "1 ELM ST", "city": "Atlantis", "state": "XX", "zip_code": "00000", "country": "US",
			}},
		),
	}}
	b := NewBackfiller(mock, NewStaticGeocoder(), testLogger())

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, mock.Queries, 1)
	assert.Contains(t, mock.Queries[0].Cypher, "a.location IS NULL")

	require.Len(t, mock.Transactions, 1)
	stmts := mock.Transactions[0]
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Cypher, "point({latitude: $latitude, longitude: $longitude})")
	assert.Equal(t, "w1", stmts[0].Params["uid"])
	assert.Equal(t, 42.3601, stmts[0].Params["latitude"])
	assert.Equal(t, -71.0589, stmts[0].Params["longitude"])
}

func TestBackfillKeepsExistingCoordinates(t *testing.T) {
	mock := &driver.MockDriver{Results: []neo4j.EagerResult{
		addressesResult(map[string]any{"uid": "w1", "props": map[string]any{
			"street": "somewhere", "city": "Atlantis", "state": "XX",
			"latitude": 12.5, "longitude": -33.25,
		}}),
	}}
	b := NewBackfiller(mock, NewStaticGeocoder(), testLogger())

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stmts := mock.Transactions[0]
	assert.Equal(t, 12.5, stmts[0].Params["latitude"])
	assert.Equal(t, -33.25, stmts[0].Params["longitude"])
}

func TestBackfillNothingToDo(t *testing.T) {
	mock := &driver.MockDriver{}
	b := NewBackfiller(mock, NewStaticGeocoder(), testLogger())

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mock.Transactions)
}

func TestBackfillStoreFailure(t *testing.T) {
	mock := &driver.MockDriver{
		Results: []neo4j.EagerResult{
			addressesResult(map[string]any{"uid": "w1", "props": map[string]any{
				"city": "BOSTON", "state": "MA",
			}}),
		},
		TxErr: errors.New("leader switch"),
	}
	b := NewBackfiller(mock, NewStaticGeocoder(), testLogger())

	_, err := b.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "leader switch")
}
