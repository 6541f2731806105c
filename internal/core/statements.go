package core

import (
	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/record"
)

// labelOrder fixes the position of each node group inside a transaction
// so that every endpoint exists before its relationships are merged.
var labelOrder = []string{
	record.LabelPatient,
	record.LabelExtraction,
	record.LabelVisit,
	record.LabelProvider,
	record.LabelAllergy,
	record.LabelAddress,
}

var relOrder = []string{
	record.RelContainsPatient,
	record.RelHasVisit,
	record.RelConductedBy,
	record.RelWorksAt,
	record.RelHasAllergy,
	record.RelTreatedAt,
}

// upsertKeys names the natural-key properties per label. Labels absent
// here are never merged.
var upsertKeys = map[string][]string{
	record.LabelPatient:  {"patient_id"},
	record.LabelProvider: {"provider_id"},
	record.LabelAllergy:  {"allergen"},
	record.LabelAddress:  {"street", "city", "state"},
}

// buildStatements groups a mutation set into one batched statement per
// populated label and relationship type. Nodes carrying a natural key
// become MERGE rows, the rest plain CREATE rows.
func buildStatements(set *mapping.MutationSet) ([]driver.Statement, error) {
	createRows := make(map[string][]map[string]any)
	mergeRows := make(map[string][]map[string]any)

	for _, n := range set.Nodes {
		if len(n.Key) > 0 {
			mergeRows[n.Label] = append(mergeRows[n.Label], map[string]any{
				"key":   n.Key,
				"props": n.Props,
			})
			continue
		}
		createRows[n.Label] = append(createRows[n.Label], n.Props)
	}

	edgeRows := make(map[string][]map[string]any)
	edgeEnds := make(map[string][2]string)
	for _, e := range set.Edges {
		edgeRows[e.Type] = append(edgeRows[e.Type], map[string]any{
			"from": e.From,
			"to":   e.To,
		})
		edgeEnds[e.Type] = [2]string{e.FromLabel, e.ToLabel}
	}

	var stmts []driver.Statement
	for _, label := range labelOrder {
		if rows, ok := mergeRows[label]; ok {
			st, err := driver.MergeNodesStatement(label, upsertKeys[label], rows)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
		}
		if rows, ok := createRows[label]; ok {
			st, err := driver.CreateNodesStatement(label, rows)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
		}
	}
	for _, rel := range relOrder {
		rows, ok := edgeRows[rel]
		if !ok {
			continue
		}
		ends := edgeEnds[rel]
		st, err := driver.MergeEdgesStatement(rel, ends[0], ends[1], rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}
