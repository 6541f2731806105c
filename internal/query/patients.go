package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks a lookup whose subject does not exist in the graph.
var ErrNotFound = errors.New("not found")

// ErrBadFilter marks a filter that failed the allow list before any
// store round trip.
var ErrBadFilter = errors.New("invalid filter")

const patientTreeQuery = `
	MATCH (p:Patient)
	WHERE p.name = $name
	RETURN p{.*,
		visits: [(p)-[:HAS_VISIT]->(v:MedicalVisit) | v{.*,
			provider: head([(v)-[:CONDUCTED_BY]->(d:MedicalProvider) | d{.*,
				workplace: head([(d)-[:WORKS_AT]->(w:Address) | w{.*}])}])}],
		allergies: [(p)-[:HAS_ALLERGY]->(a:Allergy) | a{.*}],
		facility: head([(p)-[:TREATED_AT]->(f:Address) | f{.*}]),
		provenance: [(e:ExtractionRecord)-[:CONTAINS_PATIENT]->(p) | e{.*}]
	} AS patient
	ORDER BY p.uid
`

// PatientByName looks a patient up by exact name and returns the full
// tree around each match. Duplicate imports of the same name yield one
// tree per node.
func (l *Library) PatientByName(ctx context.Context, name string) ([]PatientTree, error) {
	res, err := l.run(ctx, "patient_by_name", patientTreeQuery, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	var trees []PatientTree
	for _, rec := range res.Records {
		v, _ := rec.Get("patient")
		if m := asMap(v); m != nil {
			trees = append(trees, decodePatientTree(m))
		}
	}
	return trees, nil
}

// Filter is one predicate on a patient property.
type Filter struct {
	Field string
	Op    string
	Value any
}

var filterFields = map[string]bool{
	"name":           true,
	"patient_id":     true,
	"age":            true,
	"date_of_birth":  true,
	"gender":         true,
	"marital_status": true,
}

var filterOps = map[string]string{
	"eq": "=",
	"gt": ">",
	"ge": ">=",
	"lt": "<",
	"le": "<=",
}

// PatientsWhere lists patients matching every filter. Fields come from a
// fixed allow list; the "has" operator tests property existence, the
// rest compare against the filter value.
func (l *Library) PatientsWhere(ctx context.Context, filters []Filter) ([]PatientView, error) {
	conds := make([]string, 0, len(filters))
	params := make(map[string]any, len(filters))
	for i, f := range filters {
		if !filterFields[f.Field] {
			return nil, &QueryError{Template: "patients_where", Err: fmt.Errorf("%w: field %q is not filterable", ErrBadFilter, f.Field)}
		}
		if f.Op == "has" {
			conds = append(conds, fmt.Sprintf("p.%s IS NOT NULL", f.Field))
			continue
		}
		op, ok := filterOps[f.Op]
		if !ok {
			return nil, &QueryError{Template: "patients_where", Err: fmt.Errorf("%w: unknown operator %q", ErrBadFilter, f.Op)}
		}
		param := fmt.Sprintf("v%d", i)
		conds = append(conds, fmt.Sprintf("p.%s %s $%s", f.Field, op, param))
		params[param] = f.Value
	}

	cypher := "MATCH (p:Patient)"
	if len(conds) > 0 {
		cypher += " WHERE " + strings.Join(conds, " AND ")
	}
	cypher += " RETURN p{.*} AS patient ORDER BY p.name, p.uid"

	res, err := l.run(ctx, "patients_where", cypher, params)
	if err != nil {
		return nil, err
	}
	var patients []PatientView
	for _, rec := range res.Records {
		v, _ := rec.Get("patient")
		if m := asMap(v); m != nil {
			patients = append(patients, decodePatient(m))
		}
	}
	return patients, nil
}
