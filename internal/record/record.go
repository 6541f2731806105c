package record

import "time"

// ExtractionVersion is stamped into the metadata of every record produced
// by the extraction stage.
const ExtractionVersion = "1.0"

// Metadata carries the provenance of one extraction run.
type Metadata struct {
	SourceID          string    `json:"source_id" validate:"required"`
	ExtractedAt       time.Time `json:"extracted_at"`
	TextLength        int       `json:"text_length"`
	ExtractionVersion string    `json:"extraction_version"`
}

// MedicalData is the structured body extracted from one clinical text.
// Optional fields are pointers; information the text never stated stays
// absent from the JSON rather than appearing as null or empty.
type MedicalData struct {
	Patient           Patient   `json:"patient" jsonschema_description:"The patient the text is about"`
	Visits            []Visit   `json:"visits,omitempty" validate:"dive" jsonschema_description:"Medical visits described in the text, in order of appearance"`
	Allergies         []Allergy `json:"allergies,omitempty" validate:"dive" jsonschema_description:"Allergies or intolerances recorded for the patient"`
	ProviderFacility  *Address  `json:"provider_facility,omitempty" jsonschema_description:"Address of the facility where the patient was treated, if stated"`
	ExtractedEntities []string  `json:"extracted_entities,omitempty" jsonschema_description:"Every distinct medical entity mentioned in the text"`
}

// Record is one intermediate document: the extracted body plus provenance.
type Record struct {
	Metadata Metadata `json:"metadata"`
	MedicalData
}

type Patient struct {
	Name          string  `json:"name" validate:"required" jsonschema_description:"Full name of the patient"`
	PatientID     *string `json:"patient_id,omitempty" jsonschema_description:"Patient identifier exactly as written in the text"`
	Age           *int    `json:"age,omitempty" validate:"omitempty,gte=0,lte=150" jsonschema_description:"Age in years"`
	DateOfBirth   *string `json:"date_of_birth,omitempty" jsonschema_description:"Date of birth as an RFC 3339 date"`
	Gender        *string `json:"gender,omitempty" jsonschema_description:"Gender as stated in the text"`
	MaritalStatus *string `json:"marital_status,omitempty" jsonschema_description:"Marital status as stated in the text"`
}

type Visit struct {
	VisitType string    `json:"visit_type" validate:"required" jsonschema_description:"Kind of encounter, e.g. well child visit"`
	StartTime string    `json:"start_time" validate:"required" jsonschema_description:"Visit start as an RFC 3339 timestamp"`
	EndTime   *string   `json:"end_time,omitempty" jsonschema_description:"Visit end as an RFC 3339 timestamp"`
	Timezone  *string   `json:"timezone,omitempty" jsonschema_description:"UTC offset or zone name if stated"`
	Location  *string   `json:"location,omitempty" jsonschema_description:"Where the visit took place as stated in the text"`
	Notes     *string   `json:"notes,omitempty" jsonschema_description:"Free-text notes about the visit"`
	Provider  *Provider `json:"provider,omitempty" jsonschema_description:"Provider who conducted the visit"`
}

type Provider struct {
	Name       string   `json:"name" validate:"required" jsonschema_description:"Provider name including title"`
	ProviderID *string  `json:"provider_id,omitempty" jsonschema_description:"Provider identifier exactly as written in the text"`
	Specialty  *string  `json:"specialty,omitempty" jsonschema_description:"Medical specialty if stated"`
	Workplace  *Address `json:"workplace,omitempty" jsonschema_description:"Address of the provider's workplace"`
}

type Allergy struct {
	Allergen      string  `json:"allergen" validate:"required" jsonschema_description:"Substance the patient is allergic to"`
	Severity      *string `json:"severity,omitempty" jsonschema_description:"Severity if stated"`
	ReactionType  *string `json:"reaction_type,omitempty" jsonschema_description:"Reaction type, e.g. allergy or intolerance"`
	ConfirmedDate *string `json:"confirmed_date,omitempty" jsonschema_description:"When the allergy was recorded, as an RFC 3339 timestamp"`
	Notes         *string `json:"notes,omitempty" jsonschema_description:"Free-text notes about the allergy"`
}

type Address struct {
	Street    string   `json:"street" validate:"required" jsonschema_description:"Street line including suite or unit"`
	City      string   `json:"city" validate:"required" jsonschema_description:"City"`
	State     string   `json:"state" validate:"required" jsonschema_description:"State or region code"`
	ZipCode   string   `json:"zip_code" validate:"required" jsonschema_description:"Postal code"`
	Country   string   `json:"country" validate:"required" jsonschema_description:"Country code"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"-"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"-"`
}
