package driver

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MissingEmbeddingQueryTmpl lists nodes of one label that have no
	// embedding yet.
	MissingEmbeddingQueryTmpl = `
		MATCH (n:%s)
		WHERE n.embedding IS NULL
		RETURN n.uid AS uid, n{.*} AS props
	`

	// SetEmbeddingQueryTmpl stores a vector with the model that produced
	// it and the text it was computed from.
	SetEmbeddingQueryTmpl = `
		MATCH (n:%s {uid: $uid})
		SET n.embedding = $embedding,
			n.embedding_model = $model,
			n.embedding_text = $text
	`

	// MissingLocationQuery lists addresses without a point property.
	MissingLocationQuery = `
		MATCH (a:Address)
		WHERE a.location IS NULL
		RETURN a.uid AS uid, a{.*} AS props
	`

	// SetLocationQuery stores coordinates plus the point the point index
	// operates on.
	SetLocationQuery = `
		MATCH (a:Address {uid: $uid})
		SET a.latitude = $latitude,
			a.longitude = $longitude,
			a.geocoded = true,
			a.location = point({latitude: $latitude, longitude: $longitude})
	`
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdents(idents ...string) error {
	for _, s := range idents {
		if !identPattern.MatchString(s) {
			return fmt.Errorf("invalid identifier %q", s)
		}
	}
	return nil
}

// CreateNodesStatement creates one node per row, each carrying exactly
// its row's properties.
func CreateNodesStatement(label string, rows []map[string]any) (Statement, error) {
	if err := checkIdents(label); err != nil {
		return Statement{}, err
	}
	return Statement{
		Cypher: fmt.Sprintf("UNWIND $rows AS row CREATE (n:%s) SET n = row", label),
		Params: map[string]any{"rows": rows},
	}, nil
}

// MergeNodesStatement finds or creates one node per row by the named key
// properties. Properties are written on create only; a matched node is
// left untouched. Rows are maps {"key": ..., "props": ...}.
func MergeNodesStatement(label string, keyNames []string, rows []map[string]any) (Statement, error) {
	if err := checkIdents(append([]string{label}, keyNames...)...); err != nil {
		return Statement{}, err
	}
	if len(keyNames) == 0 {
		return Statement{}, fmt.Errorf("merge on %s needs at least one key property", label)
	}
	pairs := make([]string, len(keyNames))
	for i, name := range keyNames {
		pairs[i] = fmt.Sprintf("%s: row.key.%s", name, name)
	}
	cypher := fmt.Sprintf(
		"UNWIND $rows AS row MERGE (n:%s {%s}) ON CREATE SET n = row.props",
		label, strings.Join(pairs, ", "))
	return Statement{Cypher: cypher, Params: map[string]any{"rows": rows}}, nil
}

// MergeEdgesStatement connects node pairs matched by property selectors.
// A selector is a property map: {uid: ...} for nodes created in the same
// transaction, or an upsert key for merged nodes. Rows are maps
// {"from": selector, "to": selector}.
func MergeEdgesStatement(relType, fromLabel, toLabel string, rows []map[string]any) (Statement, error) {
	if err := checkIdents(relType, fromLabel, toLabel); err != nil {
		return Statement{}, err
	}
	cypher := fmt.Sprintf(
		"UNWIND $rows AS row "+
			"MATCH (a:%s) WHERE all(k IN keys(row.from) WHERE a[k] = row.from[k]) "+
			"MATCH (b:%s) WHERE all(k IN keys(row.to) WHERE b[k] = row.to[k]) "+
			"MERGE (a)-[:%s]->(b)",
		fromLabel, toLabel, relType)
	return Statement{Cypher: cypher, Params: map[string]any{"rows": rows}}, nil
}
