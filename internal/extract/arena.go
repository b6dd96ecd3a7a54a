// Package extract pulls uniquely keyed semantic nodes out of source
// text and re-emits them as ordered, deduplicated source. Extraction
// works on whatever tree the parser can recover, so it is usable on
// broken files too.
package extract

import (
	"mender/internal/model"
)

// Arena owns the node records of a single extraction pass. Records are
// addressed by id, not by pointer; ids start at 1 so that
// model.ModuleScope (0) can mean "no enclosing class". Each pass owns
// its own arena, so nothing leaks between unrelated files.
type Arena struct {
	records   []model.NodeRecord
	index     map[string]int
	nextOrder int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		index: make(map[string]int),
	}
}

// add inserts a record unless its dedup key is already present.
// Returns the record's id and whether it was newly added.
func (a *Arena) add(rec model.NodeRecord) (int, bool) {
	key := rec.DedupKey()
	if id, ok := a.index[key]; ok {
		return id, false
	}

	rec.ID = len(a.records) + 1
	rec.OrderKey = a.nextOrder
	a.nextOrder++

	a.records = append(a.records, rec)
	a.index[key] = rec.ID
	return rec.ID, true
}

// Get returns the record with the given id.
func (a *Arena) Get(id int) (model.NodeRecord, bool) {
	if id < 1 || id > len(a.records) {
		return model.NodeRecord{}, false
	}
	return a.records[id-1], true
}

// Records returns all records in insertion (source) order.
func (a *Arena) Records() []model.NodeRecord {
	out := make([]model.NodeRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of records in the arena.
func (a *Arena) Len() int {
	return len(a.records)
}

// setDependencies replaces the dependency ids of the record with id.
func (a *Arena) setDependencies(id int, deps []int) {
	if id >= 1 && id <= len(a.records) {
		a.records[id-1].DependencyIDs = deps
	}
}
