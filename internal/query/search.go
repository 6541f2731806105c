package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/record"
)

// NoteHit is one full-text match. Props carries the node's properties
// with vector payloads stripped.
type NoteHit struct {
	Label string         `json:"label"`
	Score float64        `json:"score"`
	Props map[string]any `json:"props"`
}

const searchNotesQuery = `
	CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
	RETURN labels(node) AS labels, node{.*} AS props, score
	ORDER BY score DESC
	LIMIT $limit
`

// SearchNotes runs a full-text query over patient names and clinical
// notes.
func (l *Library) SearchNotes(ctx context.Context, text string, limit int) ([]NoteHit, error) {
	if limit <= 0 {
		limit = 10
	}
	params := map[string]any{
		"index": driver.FulltextIndexName,
		"query": text,
		"limit": limit,
	}
	res, err := l.run(ctx, "search_notes", searchNotesQuery, params)
	if err != nil {
		return nil, err
	}
	var hits []NoteHit
	for _, rec := range res.Records {
		labels, _ := rec.Get("labels")
		props, _ := rec.Get("props")
		score, _ := rec.Get("score")
		m := asMap(props)
		if m == nil {
			continue
		}
		hits = append(hits, NoteHit{
			Label: firstLabel(labels),
			Score: asFloat(score),
			Props: stripEmbedding(m),
		})
	}
	return hits, nil
}

func firstLabel(v any) string {
	labels, _ := v.([]any)
	if len(labels) == 0 {
		return ""
	}
	return asString(labels[0])
}

// SimilarHit is one vector-similarity match.
type SimilarHit struct {
	Label string         `json:"label"`
	Score float64        `json:"score"`
	Props map[string]any `json:"props"`
}

var similarKinds = map[string]string{
	"":         record.LabelPatient,
	"patient":  record.LabelPatient,
	"visit":    record.LabelVisit,
	"provider": record.LabelProvider,
	"allergy":  record.LabelAllergy,
}

const similarNodesQuery = `
	CALL db.index.vector.queryNodes($index, $k, $embedding) YIELD node, score
	WHERE score >= $threshold
	RETURN node{.*} AS props, score
	ORDER BY score DESC
`

// SimilarNodes embeds the query text and searches the vector index of
// one embeddable kind (patient, visit, provider, or allergy; empty means
// patient). Hits below threshold are dropped.
func (l *Library) SimilarNodes(ctx context.Context, kind, text string, threshold float64, limit int) ([]SimilarHit, error) {
	if l.Embedder == nil {
		return nil, &QueryError{Template: "similar_nodes", Err: errors.New("no embedder configured")}
	}
	label, ok := similarKinds[kind]
	if !ok {
		return nil, &QueryError{Template: "similar_nodes", Err: fmt.Errorf("%w: unknown kind %q", ErrBadFilter, kind)}
	}
	if limit <= 0 {
		limit = 10
	}

	vec, err := l.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, &QueryError{Template: "similar_nodes", Err: err}
	}

	params := map[string]any{
		"index":     driver.EmbeddableLabels[label],
		"k":         limit,
		"embedding": toFloat64(vec),
		"threshold": threshold,
	}
	res, err := l.run(ctx, "similar_nodes", similarNodesQuery, params)
	if err != nil {
		return nil, err
	}
	var hits []SimilarHit
	for _, rec := range res.Records {
		props, _ := rec.Get("props")
		score, _ := rec.Get("score")
		m := asMap(props)
		if m == nil {
			continue
		}
		hits = append(hits, SimilarHit{Label: label, Score: asFloat(score), Props: stripEmbedding(m)})
	}
	return hits, nil
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

// NearbyProvider is one provider within the search radius.
type NearbyProvider struct {
	Provider ProviderView `json:"provider"`
	Address  AddressView  `json:"address"`
	Meters   float64      `json:"meters"`
}

const providersNearQuery = `
	MATCH (d:MedicalProvider)-[:WORKS_AT]->(a:Address)
	WHERE a.location IS NOT NULL
	WITH d, a, point.distance(a.location, point({latitude: $lat, longitude: $lng})) AS meters
	WHERE meters <= $radius
	RETURN d{.*} AS provider, a{.*} AS address, meters
	ORDER BY meters
	LIMIT $limit
`

// ProvidersNear lists providers whose workplace lies within radiusMeters
// of the given point, closest first. Addresses never geocoded are
// ignored.
func (l *Library) ProvidersNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]NearbyProvider, error) {
	if limit <= 0 {
		limit = 10
	}
	params := map[string]any{
		"lat":    lat,
		"lng":    lng,
		"radius": radiusMeters,
		"limit":  limit,
	}
	res, err := l.run(ctx, "providers_near", providersNearQuery, params)
	if err != nil {
		return nil, err
	}
	var nearby []NearbyProvider
	for _, rec := range res.Records {
		provider, _ := rec.Get("provider")
		address, _ := rec.Get("address")
		meters, _ := rec.Get("meters")
		pm, am := asMap(provider), asMap(address)
		if pm == nil || am == nil {
			continue
		}
		nearby = append(nearby, NearbyProvider{
			Provider: decodeProvider(pm),
			Address:  decodeAddress(am),
			Meters:   asFloat(meters),
		})
	}
	return nearby, nil
}
