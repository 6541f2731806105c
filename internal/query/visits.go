package query

import "context"

// VisitWithPatient pairs a visit with the patient it belongs to.
type VisitWithPatient struct {
	Visit   VisitView   `json:"visit"`
	Patient PatientView `json:"patient"`
}

const visitsInRangeQuery = `
	MATCH (p:Patient)-[:HAS_VISIT]->(v:MedicalVisit)
	WHERE v.start_time >= $from AND v.start_time <= $to
	RETURN v{.*} AS visit, p{.*} AS patient
	ORDER BY v.start_time
`

// VisitsInRange lists visits whose start time falls inside [from, to],
// each with its owning patient. Bounds are compared as the stored
// timestamp strings.
func (l *Library) VisitsInRange(ctx context.Context, from, to string) ([]VisitWithPatient, error) {
	res, err := l.run(ctx, "visits_in_range", visitsInRangeQuery, map[string]any{"from": from, "to": to})
	if err != nil {
		return nil, err
	}
	var visits []VisitWithPatient
	for _, rec := range res.Records {
		v, _ := rec.Get("visit")
		p, _ := rec.Get("patient")
		vm, pm := asMap(v), asMap(p)
		if vm == nil || pm == nil {
			continue
		}
		visits = append(visits, VisitWithPatient{Visit: decodeVisit(vm), Patient: decodePatient(pm)})
	}
	return visits, nil
}

const patientOfVisitQuery = `
	MATCH (p:Patient)-[:HAS_VISIT]->(v:MedicalVisit {uid: $uid})
	RETURN p{.*} AS patient
`

// PatientOfVisit walks back from a visit to its patient. ErrNotFound
// means the visit does not exist or is orphaned.
func (l *Library) PatientOfVisit(ctx context.Context, visitUID string) (*PatientView, error) {
	res, err := l.run(ctx, "patient_of_visit", patientOfVisitQuery, map[string]any{"uid": visitUID})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, &QueryError{Template: "patient_of_visit", Err: ErrNotFound}
	}
	v, _ := res.Records[0].Get("patient")
	m := asMap(v)
	if m == nil {
		return nil, &QueryError{Template: "patient_of_visit", Err: ErrNotFound}
	}
	p := decodePatient(m)
	return &p, nil
}
