package query

import (
	"sort"
	"strings"
)

// PatientView mirrors a Patient node. Optional properties stay nil when
// the node never carried them.
type PatientView struct {
	UID           string  `json:"uid"`
	Name          string  `json:"name"`
	PatientID     *string `json:"patient_id,omitempty"`
	Age           *int    `json:"age,omitempty"`
	DateOfBirth   *string `json:"date_of_birth,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	MaritalStatus *string `json:"marital_status,omitempty"`
}

type VisitView struct {
	UID       string        `json:"uid"`
	VisitType string        `json:"visit_type"`
	StartTime string        `json:"start_time"`
	EndTime   *string       `json:"end_time,omitempty"`
	Timezone  *string       `json:"timezone,omitempty"`
	Location  *string       `json:"location,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
	Provider  *ProviderView `json:"provider,omitempty"`
}

type ProviderView struct {
	UID        string       `json:"uid"`
	Name       string       `json:"name"`
	ProviderID *string      `json:"provider_id,omitempty"`
	Specialty  *string      `json:"specialty,omitempty"`
	Workplace  *AddressView `json:"workplace,omitempty"`
}

type AllergyView struct {
	UID           string  `json:"uid"`
	Allergen      string  `json:"allergen"`
	Severity      *string `json:"severity,omitempty"`
	ReactionType  *string `json:"reaction_type,omitempty"`
	ConfirmedDate *string `json:"confirmed_date,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type AddressView struct {
	UID       string   `json:"uid"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zip_code"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Provenance mirrors the ExtractionRecord node a patient came from.
type Provenance struct {
	SourceID          string `json:"source_id"`
	ExtractedAt       string `json:"extracted_at"`
	TextLength        int    `json:"text_length"`
	ExtractionVersion string `json:"extraction_version"`
}

// PatientTree is the full read model for one patient: the patient's own
// properties plus every connected visit, allergy, facility, and
// extraction record. Visits are ordered by start time.
type PatientTree struct {
	PatientView
	Visits     []VisitView   `json:"visits"`
	Allergies  []AllergyView `json:"allergies"`
	Facility   *AddressView  `json:"facility,omitempty"`
	Provenance []Provenance  `json:"provenance,omitempty"`
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asMaps(v any) []map[string]any {
	items, _ := v.([]any)
	var out []map[string]any
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func getString(m map[string]any, key string) string {
	return asString(m[key])
}

func getStringPtr(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

func getIntPtr(m map[string]any, key string) *int {
	if _, ok := m[key]; !ok {
		return nil
	}
	n := asInt(m[key])
	return &n
}

func getFloatPtr(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

// stripEmbedding drops the vector payload from a raw property map before
// it leaves the library.
func stripEmbedding(m map[string]any) map[string]any {
	for k := range m {
		if strings.HasPrefix(k, "embedding") {
			delete(m, k)
		}
	}
	delete(m, "location")
	return m
}

func decodePatient(m map[string]any) PatientView {
	return PatientView{
		UID:           getString(m, "uid"),
		Name:          getString(m, "name"),
		PatientID:     getStringPtr(m, "patient_id"),
		Age:           getIntPtr(m, "age"),
		DateOfBirth:   getStringPtr(m, "date_of_birth"),
		Gender:        getStringPtr(m, "gender"),
		MaritalStatus: getStringPtr(m, "marital_status"),
	}
}

func decodeVisit(m map[string]any) VisitView {
	v := VisitView{
		UID:       getString(m, "uid"),
		VisitType: getString(m, "visit_type"),
		StartTime: getString(m, "start_time"),
		EndTime:   getStringPtr(m, "end_time"),
		Timezone:  getStringPtr(m, "timezone"),
		Location:  getStringPtr(m, "location"),
		Notes:     getStringPtr(m, "notes"),
	}
	if pm := asMap(m["provider"]); pm != nil {
		p := decodeProvider(pm)
		v.Provider = &p
	}
	return v
}

func decodeProvider(m map[string]any) ProviderView {
	p := ProviderView{
		UID:        getString(m, "uid"),
		Name:       getString(m, "name"),
		ProviderID: getStringPtr(m, "provider_id"),
		Specialty:  getStringPtr(m, "specialty"),
	}
	if wm := asMap(m["workplace"]); wm != nil {
		w := decodeAddress(wm)
		p.Workplace = &w
	}
	return p
}

func decodeAllergy(m map[string]any) AllergyView {
	return AllergyView{
		UID:           getString(m, "uid"),
		Allergen:      getString(m, "allergen"),
		Severity:      getStringPtr(m, "severity"),
		ReactionType:  getStringPtr(m, "reaction_type"),
		ConfirmedDate: getStringPtr(m, "confirmed_date"),
		Notes:         getStringPtr(m, "notes"),
	}
}

func decodeAddress(m map[string]any) AddressView {
	return AddressView{
		UID:       getString(m, "uid"),
		Street:    getString(m, "street"),
		City:      getString(m, "city"),
		State:     getString(m, "state"),
		ZipCode:   getString(m, "zip_code"),
		Country:   getString(m, "country"),
		Latitude:  getFloatPtr(m, "latitude"),
		Longitude: getFloatPtr(m, "longitude"),
	}
}

func decodeProvenance(m map[string]any) Provenance {
	return Provenance{
		SourceID:          getString(m, "source_id"),
		ExtractedAt:       getString(m, "extracted_at"),
		TextLength:        asInt(m["text_length"]),
		ExtractionVersion: getString(m, "extraction_version"),
	}
}

func decodePatientTree(m map[string]any) PatientTree {
	tree := PatientTree{PatientView: decodePatient(m)}

	for _, vm := range asMaps(m["visits"]) {
		tree.Visits = append(tree.Visits, decodeVisit(vm))
	}
	sort.Slice(tree.Visits, func(i, j int) bool {
		return tree.Visits[i].StartTime < tree.Visits[j].StartTime
	})

	for _, am := range asMaps(m["allergies"]) {
		tree.Allergies = append(tree.Allergies, decodeAllergy(am))
	}
	if fm := asMap(m["facility"]); fm != nil {
		f := decodeAddress(fm)
		tree.Facility = &f
	}
	for _, em := range asMaps(m["provenance"]) {
		tree.Provenance = append(tree.Provenance, decodeProvenance(em))
	}
	return tree
}
