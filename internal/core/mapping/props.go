package mapping

import (
	"time"

	"github.com/agenthands/helix/internal/record"
)

// Property builders copy present fields only. A field the source text
// never stated stays off the node entirely, it is never written as null
// or a zero value.

func setString(props map[string]any, key string, val *string) {
	if val != nil {
		props[key] = *val
	}
}

func setInt(props map[string]any, key string, val *int) {
	if val != nil {
		props[key] = *val
	}
}

func setFloat(props map[string]any, key string, val *float64) {
	if val != nil {
		props[key] = *val
	}
}

func patientProps(p record.Patient) map[string]any {
	props := map[string]any{"name": p.Name}
	setString(props, "patient_id", p.PatientID)
	setInt(props, "age", p.Age)
	setString(props, "date_of_birth", p.DateOfBirth)
	setString(props, "gender", p.Gender)
	setString(props, "marital_status", p.MaritalStatus)
	return props
}

func visitProps(v *record.Visit) map[string]any {
	props := map[string]any{"visit_type": v.VisitType, "start_time": v.StartTime}
	setString(props, "end_time", v.EndTime)
	setString(props, "timezone", v.Timezone)
	setString(props, "location", v.Location)
	setString(props, "notes", v.Notes)
	return props
}

func providerProps(p *record.Provider) map[string]any {
	props := map[string]any{"name": p.Name}
	setString(props, "provider_id", p.ProviderID)
	setString(props, "specialty", p.Specialty)
	return props
}

func allergyProps(a *record.Allergy) map[string]any {
	props := map[string]any{"allergen": a.Allergen}
	setString(props, "severity", a.Severity)
	setString(props, "reaction_type", a.ReactionType)
	setString(props, "confirmed_date", a.ConfirmedDate)
	setString(props, "notes", a.Notes)
	return props
}

func addressProps(a *record.Address) map[string]any {
	props := map[string]any{
		"street":   a.Street,
		"city":     a.City,
		"state":    a.State,
		"zip_code": a.ZipCode,
		"country":  a.Country,
	}
	setFloat(props, "latitude", a.Latitude)
	setFloat(props, "longitude", a.Longitude)
	return props
}

func metadataProps(md record.Metadata) map[string]any {
	return map[string]any{
		"source_id":          md.SourceID,
		"extracted_at":       md.ExtractedAt.UTC().Format(time.RFC3339),
		"text_length":        md.TextLength,
		"extraction_version": md.ExtractionVersion,
	}
}

func patientKey(p record.Patient) map[string]any {
	if p.PatientID == nil {
		return nil
	}
	return map[string]any{"patient_id": *p.PatientID}
}

func providerKey(p *record.Provider) map[string]any {
	if p.ProviderID == nil {
		return nil
	}
	return map[string]any{"provider_id": *p.ProviderID}
}

func allergyKey(a *record.Allergy) map[string]any {
	return map[string]any{"allergen": a.Allergen}
}

func addressKey(a *record.Address) map[string]any {
	return map[string]any{"street": a.Street, "city": a.City, "state": a.State}
}
