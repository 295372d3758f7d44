package shared

import "sort"

// ChangeSet records the fields of an aggregate that differ between its
// stored state and a requested update, mapping each changed field name
// to its new value. An empty ChangeSet means the update is a no-op and
// no write is required.
type ChangeSet map[string]any

// NewChangeSet creates an empty change set
func NewChangeSet() ChangeSet {
	return make(ChangeSet)
}

// Set records a changed field and its new value
func (c ChangeSet) Set(field string, value any) {
	c[field] = value
}

// Contains reports whether the given field changed
func (c ChangeSet) Contains(field string) bool {
	_, ok := c[field]
	return ok
}

// IsEmpty reports whether no fields changed
func (c ChangeSet) IsEmpty() bool {
	return len(c) == 0
}

// Fields returns the changed field names in sorted order
func (c ChangeSet) Fields() []string {
	fields := make([]string, 0, len(c))
	for field := range c {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Merge copies all entries from other into this change set
func (c ChangeSet) Merge(other ChangeSet) {
	for field, value := range other {
		c[field] = value
	}
}
