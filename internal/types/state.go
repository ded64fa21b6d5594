package types

// Snapshot is the persisted state of one profile. Categories is keyed by category name, then
// by entry name. Values are whatever the producer had at hand: typed Go values when captured
// from a live profile, decoded JSON or YAML scalars when read back from a backend.
type Snapshot struct {
	ProfileID  string                    `json:"profile_id" yaml:"profile_id"`
	Categories map[string]map[string]any `json:"categories" yaml:"categories"`
}

func NewSnapshot(profileID string) Snapshot {
	return Snapshot{ProfileID: profileID, Categories: make(map[string]map[string]any)}
}

// Put stores one entry value, creating the category map on first use.
func (s *Snapshot) Put(category, entry string, value any) {
	if s.Categories == nil {
		s.Categories = make(map[string]map[string]any)
	}
	m, ok := s.Categories[category]
	if !ok {
		m = make(map[string]any)
		s.Categories[category] = m
	}
	m[entry] = value
}

// Len returns the number of entries across all categories.
func (s Snapshot) Len() int {
	n := 0
	for _, m := range s.Categories {
		n += len(m)
	}
	return n
}
