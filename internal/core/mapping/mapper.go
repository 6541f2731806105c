package mapping

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/helix/internal/record"
)

// Mode selects how the mapper treats nodes that may already exist in the
// graph.
type Mode int

const (
	// ModeCreate allocates fresh nodes on every import. Re-importing a
	// record duplicates its nodes.
	ModeCreate Mode = iota
	// ModeUpsert reuses nodes matched by their natural keys: patient_id,
	// provider_id, allergen, and street+city+state for addresses.
	ModeUpsert
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "create":
		return ModeCreate, nil
	case "upsert":
		return ModeUpsert, nil
	}
	return ModeCreate, fmt.Errorf("unknown import mode %q", s)
}

func (m Mode) String() string {
	if m == ModeUpsert {
		return "upsert"
	}
	return "create"
}

// Node is one node to be written: its label, the full property map, and
// under ModeUpsert the key properties identifying it (nil key means the
// node is always created).
type Node struct {
	UID   string
	Label string
	Props map[string]any
	Key   map[string]any
}

// Selector returns the property map an edge statement matches this node
// by: the upsert key when present, the fresh uid otherwise.
func (n Node) Selector() map[string]any {
	if n.Key != nil {
		return n.Key
	}
	return map[string]any{"uid": n.UID}
}

// Edge is one relationship between two node selectors.
type Edge struct {
	Type      string
	FromLabel string
	From      map[string]any
	ToLabel   string
	To        map[string]any
}

// MutationSet is the flat result of mapping one record: every node and
// relationship the import transaction will write.
type MutationSet struct {
	Nodes []Node
	Edges []Edge
}

func (s *MutationSet) addNode(n Node) {
	s.Nodes = append(s.Nodes, n)
}

func (s *MutationSet) connect(rel string, from, to Node) {
	s.Edges = append(s.Edges, Edge{
		Type:      rel,
		FromLabel: from.Label,
		From:      from.Selector(),
		ToLabel:   to.Label,
		To:        to.Selector(),
	})
}

// CountByLabel tallies the nodes per label.
func (s *MutationSet) CountByLabel() map[string]int {
	counts := make(map[string]int, len(s.Nodes))
	for _, n := range s.Nodes {
		counts[n.Label]++
	}
	return counts
}

// PatientUID returns the uid allocated for the record's patient node.
// Under ModeUpsert a matched patient keeps its stored uid instead.
func (s *MutationSet) PatientUID() string {
	for _, n := range s.Nodes {
		if n.Label == record.LabelPatient {
			return n.UID
		}
	}
	return ""
}

// Mapper turns validated records into mutation sets. UIDGenerator is
// swappable so tests get deterministic ids.
type Mapper struct {
	UIDGenerator func() string
	Mode         Mode
}

func NewMapper(mode Mode) *Mapper {
	return &Mapper{
		UIDGenerator: func() string {
			return uuid.New().String()
		},
		Mode: mode,
	}
}

// Map validates rec and produces its nodes and relationships. Only fields
// present in the record become properties. A validation failure returns
// record.ValidationError before anything touches the store.
func (m *Mapper) Map(rec *record.Record) (*MutationSet, error) {
	if err := record.Validate(rec); err != nil {
		return nil, err
	}

	set := &MutationSet{}

	patient := m.node(record.LabelPatient, patientProps(rec.Patient), patientKey(rec.Patient))
	set.addNode(patient)

	extraction := m.node(record.LabelExtraction, metadataProps(rec.Metadata), nil)
	set.addNode(extraction)
	set.connect(record.RelContainsPatient, extraction, patient)

	for i := range rec.Visits {
		v := &rec.Visits[i]
		visit := m.node(record.LabelVisit, visitProps(v), nil)
		set.addNode(visit)
		set.connect(record.RelHasVisit, patient, visit)

		if v.Provider == nil {
			continue
		}
		provider := m.node(record.LabelProvider, providerProps(v.Provider), providerKey(v.Provider))
		set.addNode(provider)
		set.connect(record.RelConductedBy, visit, provider)

		if v.Provider.Workplace != nil {
			workplace := m.node(record.LabelAddress, addressProps(v.Provider.Workplace), addressKey(v.Provider.Workplace))
			set.addNode(workplace)
			set.connect(record.RelWorksAt, provider, workplace)
		}
	}

	for i := range rec.Allergies {
		a := &rec.Allergies[i]
		allergy := m.node(record.LabelAllergy, allergyProps(a), allergyKey(a))
		set.addNode(allergy)
		set.connect(record.RelHasAllergy, patient, allergy)
	}

	if rec.ProviderFacility != nil {
		facility := m.node(record.LabelAddress, addressProps(rec.ProviderFacility), addressKey(rec.ProviderFacility))
		set.addNode(facility)
		set.connect(record.RelTreatedAt, patient, facility)
	}

	return set, nil
}

func (m *Mapper) node(label string, props, key map[string]any) Node {
	uid := m.UIDGenerator()
	props["uid"] = uid
	n := Node{UID: uid, Label: label, Props: props}
	if m.Mode == ModeUpsert {
		n.Key = key
	}
	return n
}
