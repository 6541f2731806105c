package driver

import (
	"context"
	"fmt"

	"github.com/agenthands/helix/internal/record"
)

// FulltextIndexName is the full-text index over patient names and
// clinical notes.
const FulltextIndexName = "clinical_text"

// EmbeddableLabels maps each label that carries an embedding to its
// vector index.
var EmbeddableLabels = map[string]string{
	record.LabelPatient:  "patient_embedding",
	record.LabelVisit:    "visit_embedding",
	record.LabelProvider: "provider_embedding",
	record.LabelAllergy:  "allergy_embedding",
}

// SchemaError reports a rejected schema statement. Schema failures are
// fatal for the run, never retried.
type SchemaError struct {
	Statement string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema statement rejected: %s: %v", e.Statement, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

const vectorIndexTmpl = "CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.embedding) " +
	"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}"

// SchemaStatements returns the DDL for the medical graph: uid uniqueness
// per label, lookup indexes, a full-text index over names and notes, one
// vector index per embeddable label, and a point index on address
// coordinates. Every statement is additive, so applying the set twice
// is a no-op.
func SchemaStatements(vectorDimensions int) []string {
	stmts := []string{
		"CREATE CONSTRAINT patient_uid IF NOT EXISTS FOR (n:Patient) REQUIRE n.uid IS UNIQUE",
		"CREATE CONSTRAINT visit_uid IF NOT EXISTS FOR (n:MedicalVisit) REQUIRE n.uid IS UNIQUE",
		"CREATE CONSTRAINT provider_uid IF NOT EXISTS FOR (n:MedicalProvider) REQUIRE n.uid IS UNIQUE",
		"CREATE CONSTRAINT allergy_uid IF NOT EXISTS FOR (n:Allergy) REQUIRE n.uid IS UNIQUE",
		"CREATE CONSTRAINT address_uid IF NOT EXISTS FOR (n:Address) REQUIRE n.uid IS UNIQUE",
		"CREATE CONSTRAINT extraction_uid IF NOT EXISTS FOR (n:ExtractionRecord) REQUIRE n.uid IS UNIQUE",

		"CREATE INDEX patient_name IF NOT EXISTS FOR (n:Patient) ON (n.name)",
		"CREATE INDEX patient_patient_id IF NOT EXISTS FOR (n:Patient) ON (n.patient_id)",
		"CREATE INDEX patient_age IF NOT EXISTS FOR (n:Patient) ON (n.age)",
		"CREATE INDEX visit_type IF NOT EXISTS FOR (n:MedicalVisit) ON (n.visit_type)",
		"CREATE INDEX visit_start_time IF NOT EXISTS FOR (n:MedicalVisit) ON (n.start_time)",
		"CREATE INDEX allergy_allergen IF NOT EXISTS FOR (n:Allergy) ON (n.allergen)",
		"CREATE INDEX provider_provider_id IF NOT EXISTS FOR (n:MedicalProvider) ON (n.provider_id)",
		"CREATE INDEX address_city IF NOT EXISTS FOR (n:Address) ON (n.city)",
		"CREATE INDEX extraction_source_id IF NOT EXISTS FOR (n:ExtractionRecord) ON (n.source_id)",

		"CREATE FULLTEXT INDEX " + FulltextIndexName + " IF NOT EXISTS " +
			"FOR (n:Patient|MedicalVisit|Allergy) ON EACH [n.name, n.notes]",
	}

	for _, label := range []string{record.LabelPatient, record.LabelVisit, record.LabelProvider, record.LabelAllergy} {
		stmts = append(stmts, fmt.Sprintf(vectorIndexTmpl, EmbeddableLabels[label], label, vectorDimensions))
	}

	stmts = append(stmts, "CREATE POINT INDEX address_location IF NOT EXISTS FOR (n:Address) ON (n.location)")
	return stmts
}

// EnsureSchema applies the schema, stopping at the first rejected
// statement.
func EnsureSchema(ctx context.Context, g GraphDriver, vectorDimensions int) error {
	for _, stmt := range SchemaStatements(vectorDimensions) {
		if _, err := g.ExecuteQuery(ctx, stmt, nil); err != nil {
			return &SchemaError{Statement: stmt, Err: err}
		}
	}
	return nil
}
