package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/helix/internal/record"
)

const fernandoJSON = `{
	"patient": {"name": "Fernando Amos Breitenberg", "age": 41, "marital_status": "Married"},
	"visits": [{
		"visit_type": "well child visit",
		"start_time": "1992-12-23T01:08:42+01:00",
		"end_time": "1992-12-23T01:23:42+01:00",
		"provider": {"name": "Dr. Trent Krajcik"}
	}],
	"allergies": [{"allergen": "shellfish", "reaction_type": "allergy"}],
	"provider_facility": {
		"street": "300 CONGRESS ST STE 203", "city": "QUINCY", "state": "MA",
		"zip_code": "021690907", "country": "US"
	},
	"extracted_entities": ["well child visit", "shellfish allergy"]
}`

func TestExtractBuildsValidatedRecord(t *testing.T) {
	mock := &MockClient{Responses: []string{fernandoJSON}}
	e, err := NewExtractor(mock, 0, "")
	require.NoError(t, err)

	text := "Fernando Amos Breitenberg is a married 41 year old..."
	rec, err := e.Extract(context.Background(), "src-001", text)
	require.NoError(t, err)

	assert.Equal(t, "src-001", rec.Metadata.SourceID)
	assert.Equal(t, record.ExtractionVersion, rec.Metadata.ExtractionVersion)
	assert.Equal(t, len(text), rec.Metadata.TextLength)
	assert.False(t, rec.Metadata.ExtractedAt.IsZero())

	assert.Equal(t, "Fernando Amos Breitenberg", rec.Patient.Name)
	require.Len(t, rec.Visits, 1)
	require.NotNil(t, rec.Visits[0].Provider)
	assert.Equal(t, "Dr. Trent Krajcik", rec.Visits[0].Provider.Name)
	require.Len(t, rec.Allergies, 1)
	assert.Equal(t, "shellfish", rec.Allergies[0].Allergen)

	// The prompt carries the schema and the text.
	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], `"patient"`)
	assert.Contains(t, mock.Prompts[0], text)
}

func TestExtractGeneratesSourceID(t *testing.T) {
	mock := &MockClient{Responses: []string{fernandoJSON}}
	e, err := NewExtractor(mock, 0, "")
	require.NoError(t, err)

	rec, err := e.Extract(context.Background(), "", "some clinical text")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Metadata.SourceID)
}

func TestExtractRefusesEmptyText(t *testing.T) {
	e, err := NewExtractor(&MockClient{}, 0, "")
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "src-002", "   \n\t ")
	require.Error(t, err)
	var xerr *ExtractionError
	assert.True(t, errors.As(err, &xerr))
}

func TestExtractSurvivesFencedResponse(t *testing.T) {
	fenced := "Here is the result:\n```json\n" + fernandoJSON + "\n```"
	mock := &MockClient{Responses: []string{fenced}}
	e, err := NewExtractor(mock, 0, "")
	require.NoError(t, err)

	rec, err := e.Extract(context.Background(), "src-003", "text")
	require.NoError(t, err)
	assert.Equal(t, "Fernando Amos Breitenberg", rec.Patient.Name)
}

func TestExtractWrapsLLMFailure(t *testing.T) {
	mock := &MockClient{Err: errors.New("model overloaded")}
	e, err := NewExtractor(mock, 0, "")
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "src-004", "text")
	require.Error(t, err)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, "src-004", xerr.SourceID)
}

// A response missing required fields is an extraction failure, and the
// invalid-record cause stays visible through the wrap.
func TestExtractRejectsIncompleteResponse(t *testing.T) {
	mock := &MockClient{Responses: []string{`{"patient": {"age": 30}}`}}
	e, err := NewExtractor(mock, 0, "")
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "src-005", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, record.ErrInvalidRecord))
}

func TestExtractTruncatesLongText(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 200) + "FINALMARKER"
	mock := &MockClient{Responses: []string{fernandoJSON}}
	e, err := NewExtractor(mock, 16, "")
	require.NoError(t, err)

	rec, err := e.Extract(context.Background(), "src-006", long)
	require.NoError(t, err)

	// The prompt saw the truncated text, the metadata the original size.
	require.Len(t, mock.Prompts, 1)
	assert.NotContains(t, mock.Prompts[0], "FINALMARKER")
	assert.Equal(t, len(long), rec.Metadata.TextLength)
}
