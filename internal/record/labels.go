package record

// Node labels in the graph.
const (
	LabelPatient    = "Patient"
	LabelVisit      = "MedicalVisit"
	LabelProvider   = "MedicalProvider"
	LabelAllergy    = "Allergy"
	LabelAddress    = "Address"
	LabelExtraction = "ExtractionRecord"
)

// Relationship types in the graph. Each pair of connected nodes carries a
// single stored relationship; the store traverses it from either end.
const (
	RelHasVisit        = "HAS_VISIT"
	RelHasAllergy      = "HAS_ALLERGY"
	RelConductedBy     = "CONDUCTED_BY"
	RelWorksAt         = "WORKS_AT"
	RelTreatedAt       = "TREATED_AT"
	RelContainsPatient = "CONTAINS_PATIENT"
)
