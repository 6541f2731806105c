package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/record"
)

const extractedJSON = `{
	"patient": {"name": "Lucia Marquez", "age": 34},
	"visits": [{"visit_type": "checkup", "start_time": "2026-03-01T09:00:00Z"}],
	"allergies": [{"allergen": "penicillin"}]
}`

const incompleteJSON = `{"patient": {"age": 51}}`

func testPipeline(t *testing.T, mock *driver.MockDriver, client *extraction.MockClient, strict bool) *Pipeline {
	t.Helper()
	ex, err := extraction.NewExtractor(client, 8000, "")
	require.NoError(t, err)
	im := NewImporter(mock, mapping.NewMapper(mapping.ModeCreate), 0, testLogger())
	return NewPipeline(mock, ex, im, strict, testLogger())
}

func TestProcessTextExtractsAndImports(t *testing.T) {
	mock := &driver.MockDriver{}
	client := &extraction.MockClient{Responses: []string{extractedJSON}}
	p := testPipeline(t, mock, client, false)

	rec, res, err := p.ProcessText(context.Background(),
		"note-1", "Lucia Marquez, 34, seen for a checkup. Allergic to penicillin.")
	require.NoError(t, err)

	assert.Equal(t, "note-1", rec.Metadata.SourceID)
	assert.Equal(t, "Lucia Marquez", rec.Patient.Name)
	require.NotNil(t, res)
	assert.Equal(t, 4, res.Nodes)
	assert.Equal(t, 3, res.Edges)
	require.Len(t, mock.Transactions, 1)
}

func TestRunBatchContinuesPastFailure(t *testing.T) {
	mock := &driver.MockDriver{}
	client := &extraction.MockClient{Responses: []string{extractedJSON, incompleteJSON, extractedJSON}}
	p := testPipeline(t, mock, client, false)

	sources := []Source{
		{SourceID: "note-1", Text: "Lucia Marquez, checkup."},
		{SourceID: "note-2", Text: "Unattributed lab results."},
		{SourceID: "note-3", Text: "Lucia Marquez, follow-up."},
	}

	summary, err := p.RunBatch(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 3)
	assert.ErrorIs(t, summary.Outcomes[1].Err, record.ErrInvalidRecord)
	assert.NoError(t, summary.Outcomes[0].Err)
	assert.NoError(t, summary.Outcomes[2].Err)

	// The failed source left nothing behind; the other two committed.
	assert.Len(t, mock.Transactions, 2)
}

func TestRunBatchStrictStopsAtFirstFailure(t *testing.T) {
	mock := &driver.MockDriver{}
	client := &extraction.MockClient{Responses: []string{incompleteJSON, extractedJSON}}
	p := testPipeline(t, mock, client, true)

	sources := []Source{
		{SourceID: "note-1", Text: "Unattributed lab results."},
		{SourceID: "note-2", Text: "Lucia Marquez, checkup."},
	}

	summary, err := p.RunBatch(context.Background(), sources)
	require.Error(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, mock.Transactions)
}

func TestImportRecordsSkipsExtraction(t *testing.T) {
	mock := &driver.MockDriver{}
	im := NewImporter(mock, mapping.NewMapper(mapping.ModeCreate), 0, testLogger())
	p := NewPipeline(mock, nil, im, false, testLogger())

	second := testRecord()
	second.Metadata.SourceID = "rec-lucia-2"

	summary, err := p.ImportRecords(context.Background(), []*record.Record{testRecord(), second})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Zero(t, summary.Failed)
	assert.Len(t, mock.Transactions, 2)
}

func TestImportRecordsInvalidMiddleRecordIsIsolated(t *testing.T) {
	mock := &driver.MockDriver{}
	im := NewImporter(mock, mapping.NewMapper(mapping.ModeCreate), 0, testLogger())
	p := NewPipeline(mock, nil, im, false, testLogger())

	bad := testRecord()
	bad.Metadata.SourceID = "rec-bad"
	bad.Visits[0].StartTime = ""

	summary, err := p.ImportRecords(context.Background(), []*record.Record{testRecord(), bad, testRecord()})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	assert.ErrorIs(t, summary.Outcomes[1].Err, record.ErrInvalidRecord)
	assert.Len(t, mock.Transactions, 2)
}
