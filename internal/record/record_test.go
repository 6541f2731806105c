package record

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func validRecord() *Record {
	return &Record{
		Metadata: Metadata{
			SourceID:          "src-001",
			TextLength:        120,
			ExtractionVersion: ExtractionVersion,
		},
		MedicalData: MedicalData{
			Patient: Patient{Name: "Fernando Amos Breitenberg", MaritalStatus: strPtr("Married"), Age: intPtr(41)},
			Visits: []Visit{
				{
					VisitType: "well child visit",
					StartTime: "1992-12-23T01:08:42+01:00",
					EndTime:   strPtr("1992-12-23T01:23:42+01:00"),
					Provider:  &Provider{Name: "Dr. Trent Krajcik"},
				},
			},
			Allergies: []Allergy{
				{Allergen: "shellfish", ReactionType: strPtr("allergy"), ConfirmedDate: strPtr("1994-04-02T12:08:42+02:00")},
			},
			ProviderFacility: &Address{
				Street: "300 CONGRESS ST STE 203", City: "QUINCY", State: "MA",
				ZipCode: "021690907", Country: "US",
			},
		},
	}
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	assert.NoError(t, Validate(validRecord()))
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	rec := validRecord()
	rec.Patient.Name = ""
	rec.Visits[0].StartTime = ""
	rec.Allergies[0].Allergen = ""

	err := Validate(rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "src-001", verr.SourceID)
	assert.Contains(t, verr.Fields, "patient.name")
	assert.Contains(t, verr.Fields, "visits[0].start_time")
	assert.Contains(t, verr.Fields, "allergies[0].allergen")
}

func TestValidateRejectsIncompleteAddress(t *testing.T) {
	rec := validRecord()
	rec.ProviderFacility.ZipCode = ""

	err := Validate(rec)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "provider_facility.zip_code")
}

func TestValidateRequiresSourceID(t *testing.T) {
	rec := validRecord()
	rec.Metadata.SourceID = ""

	err := Validate(rec)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "metadata.source_id")
}

// Absent optional fields must stay absent in JSON, not appear as null.
func TestMarshalOmitsAbsentFields(t *testing.T) {
	rec := &Record{
		Metadata:    Metadata{SourceID: "src-002", ExtractionVersion: ExtractionVersion},
		MedicalData: MedicalData{Patient: Patient{Name: "Jane Roe"}},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "visits")
	assert.NotContains(t, doc, "allergies")
	assert.NotContains(t, doc, "provider_facility")

	patient := doc["patient"].(map[string]any)
	assert.NotContains(t, patient, "age")
	assert.NotContains(t, patient, "patient_id")
}

func TestParseDocumentsSingleAndArray(t *testing.T) {
	single := `{"metadata": {"source_id": "a"}, "patient": {"name": "A"}}`
	recs, err := ParseDocuments([]byte(single))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].Metadata.SourceID)

	array := `[{"metadata": {"source_id": "a"}, "patient": {"name": "A"}},
	           {"metadata": {"source_id": "b"}, "patient": {"name": "B"}}]`
	recs, err = ParseDocuments([]byte(array))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "B", recs[1].Patient.Name)
}

func TestParseDocumentsRejectsGarbage(t *testing.T) {
	_, err := ParseDocuments([]byte("   "))
	assert.Error(t, err)
	_, err = ParseDocuments([]byte("not json"))
	assert.Error(t, err)
}

func TestReadWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, WriteFile(path, []*Record{validRecord()}))

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Fernando Amos Breitenberg", recs[0].Patient.Name)
	require.Len(t, recs[0].Visits, 1)
	require.NotNil(t, recs[0].Visits[0].Provider)
	assert.Equal(t, "Dr. Trent Krajcik", recs[0].Visits[0].Provider.Name)
}
