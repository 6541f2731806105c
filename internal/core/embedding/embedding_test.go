package embedding

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/record"
)

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestNodeText(t *testing.T) {
	tests := []struct {
		name  string
		label string
		props map[string]any
		want  string
	}{
		{
			name:  "patient with details",
			label: record.LabelPatient,
			props: map[string]any{"name": "Lucia Marquez", "age": int64(34), "gender": "female", "marital_status": "Married"},
			want:  "Patient: Lucia Marquez | Age: 34 | Gender: female | Marital Status: Married",
		},
		{
			name:  "patient name only",
			label: record.LabelPatient,
			props: map[string]any{"name": "Lucia Marquez", "patient_id": "pat-204"},
			want:  "Patient: Lucia Marquez",
		},
		{
			name:  "visit",
			label: record.LabelVisit,
			props: map[string]any{"visit_type": "checkup", "start_time": "2026-03-01T09:00:00Z", "notes": "routine"},
			want:  "Medical Visit: checkup | Start: 2026-03-01T09:00:00Z | Notes: routine",
		},
		{
			name:  "allergy",
			label: record.LabelAllergy,
			props: map[string]any{"allergen": "penicillin", "severity": "moderate", "reaction_type": "rash"},
			want:  "Allergy: penicillin | Severity: moderate | Reaction: rash",
		},
		{
			name:  "provider",
			label: record.LabelProvider,
			props: map[string]any{"name": "Dr. Ana Silva", "specialty": "cardiology"},
			want:  "Provider: Dr. Ana Silva | Specialty: cardiology",
		},
		{
			name:  "missing head falls back",
			label: record.LabelAllergy,
			props: map[string]any{"severity": "mild"},
			want:  "Allergy: Unknown | Severity: mild",
		},
		{
			name:  "unembeddable label",
			label: record.LabelAddress,
			props: map[string]any{"city": "BOSTON"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NodeText(tt.label, tt.props))
		})
	}
}

func missingNodesResult(rows ...map[string]any) neo4j.EagerResult {
	records := make([]*neo4j.Record, len(rows))
	for i, row := range rows {
		records[i] = &neo4j.Record{
			Keys:   []string{"uid", "props"},
			Values: []any{row["uid"], row["props"]},
		}
	}
	return neo4j.EagerResult{Records: records}
}

func TestRunEmbedsMissingNodes(t *testing.T) {
	mock := &driver.MockDriver{Results: []neo4j.EagerResult{
		missingNodesResult(
			map[string]any{"uid": "p1", "props": map[string]any{"name": "Lucia Marquez", "age": int64(34)}},
			map[string]any{"uid": "p2", "props": map[string]any{"name": "Omar Haddad"}},
		),
	}}
	embedder := &extraction.MockEmbedder{Response: []float32{0.25, 0.5}}
	b := NewBackfiller(mock, embedder, "nomic-embed-text", testLogger())

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// One missing-nodes query per embeddable label.
	require.Len(t, mock.Queries, 4)
	assert.Contains(t, mock.Queries[0].Cypher, "n.embedding IS NULL")
	assert.Contains(t, mock.Queries[0].Cypher, "MATCH (n:Patient)")

	require.Len(t, mock.Transactions, 1)
	stmts := mock.Transactions[0]
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].Cypher, "SET n.embedding = $embedding")
	assert.Equal(t, "p1", stmts[0].Params["uid"])
	assert.Equal(t, []float64{0.25, 0.5}, stmts[0].Params["embedding"])
	assert.Equal(t, "nomic-embed-text", stmts[0].Params["model"])
	assert.Equal(t, "Patient: Lucia Marquez | Age: 34", stmts[0].Params["text"])

	assert.Equal(t, []string{
		"Patient: Lucia Marquez | Age: 34",
		"Patient: Omar Haddad",
	}, embedder.Texts)
}

func TestRunHonorsBatchSize(t *testing.T) {
	mock := &driver.MockDriver{Results: []neo4j.EagerResult{
		missingNodesResult(
			map[string]any{"uid": "p1", "props": map[string]any{"name": "Lucia Marquez"}},
			map[string]any{"uid": "p2", "props": map[string]any{"name": "Omar Haddad"}},
			map[string]any{"uid": "p3", "props": map[string]any{"name": "Mei Chen"}},
		),
	}}
	b := NewBackfiller(mock, &extraction.MockEmbedder{Response: []float32{0.1}}, "nomic-embed-text", testLogger())
	b.BatchSize = 2

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, mock.Transactions, 2)
	assert.Len(t, mock.Transactions[0], 2)
	assert.Len(t, mock.Transactions[1], 1)
}

func TestRunSkipsNodesWhoseEmbeddingFails(t *testing.T) {
	mock := &driver.MockDriver{Results: []neo4j.EagerResult{
		missingNodesResult(map[string]any{"uid": "p1", "props": map[string]any{"name": "Lucia Marquez"}}),
	}}
	b := NewBackfiller(mock, &extraction.MockEmbedder{Err: errors.New("model not loaded")}, "nomic-embed-text", testLogger())

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mock.Transactions)
}

func TestRunStopsOnStoreFailure(t *testing.T) {
	mock := &driver.MockDriver{
		Results: []neo4j.EagerResult{
			missingNodesResult(map[string]any{"uid": "p1", "props": map[string]any{"name": "Lucia Marquez"}}),
		},
		TxErr: errors.New("write unavailable"),
	}
	b := NewBackfiller(mock, &extraction.MockEmbedder{Response: []float32{0.1}}, "nomic-embed-text", testLogger())

	_, err := b.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "write unavailable")
}
