package result

// MappingKind selects one of the three name→id tables.
type MappingKind int

const (
	PathMapping MappingKind = iota
	FieldMapping
	CollectorMapping
)

func (k MappingKind) String() string {
	switch k {
	case PathMapping:
		return "path"
	case FieldMapping:
		return "field"
	case CollectorMapping:
		return "collector"
	default:
		return "unknown"
	}
}

// MappingEntry is one persisted name→id pair.
type MappingEntry struct {
	ID   int64
	Name string
}

// Mapping assigns integer ids to path, field and collector names.
//
// Ids are handed out in first-seen order starting at 1, so the same sequence
// of observations always produces the same ids. Not safe for concurrent use;
// it is owned by the runner's collection step.
type Mapping struct {
	tables [3]table
}

type table struct {
	ids     map[string]int64
	entries []MappingEntry
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	m := &Mapping{}
	for i := range m.tables {
		m.tables[i].ids = make(map[string]int64)
	}
	return m
}

// ID returns the id for name, assigning the next id on first use.
func (m *Mapping) ID(kind MappingKind, name string) int64 {
	t := &m.tables[kind]
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := int64(len(t.entries) + 1)
	t.ids[name] = id
	t.entries = append(t.entries, MappingEntry{ID: id, Name: name})
	return id
}

// Lookup returns the id for name without assigning one.
func (m *Mapping) Lookup(kind MappingKind, name string) (int64, bool) {
	id, ok := m.tables[kind].ids[name]
	return id, ok
}

// Entries returns the assigned pairs of one table in id order.
func (m *Mapping) Entries(kind MappingKind) []MappingEntry {
	src := m.tables[kind].entries
	out := make([]MappingEntry, len(src))
	copy(out, src)
	return out
}

// Resolve builds a record for obs at the given coordinates.
func (m *Mapping) Resolve(runID int64, iteration, period int, obs Observation) Record {
	collector := obs.Collector
	if collector == "" {
		collector = CollectorAggregated
	}
	return Record{
		RunID:       runID,
		Period:      period,
		Iteration:   iteration,
		PathID:      m.ID(PathMapping, obs.Path),
		FieldID:     m.ID(FieldMapping, obs.Field),
		CollectorID: m.ID(CollectorMapping, collector),
		Value:       obs.Value,
		ValueIndex:  obs.ValueIndex,
		Date:        obs.Date,
	}
}
