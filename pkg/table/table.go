// Package table implements the open-addressed hash table used throughout
// the runtime: globals, instance fields, class method tables, and the
// VM's string-intern set all share this one implementation.
//
// It is linear-probed with tombstone deletion and grows by doubling once
// the load factor crosses 0.75, mirroring the layout and thresholds of the
// original clox table.c.
package table

import "github.com/kristofer/lox/pkg/bytecode"

const loadFactorThreshold = 0.75
const minCapacity = 8

type entry struct {
	key   *bytecode.ObjString
	value bytecode.Value
	// tombstone is set for a deleted entry; key is nil but the slot still
	// counts toward the load factor so probe chains past it stay intact.
	tombstone bool
}

// Table is an open-addressed, linear-probed hash table keyed by interned
// string pointers. Because keys are always interned, key comparison in
// find is pointer equality, not content comparison.
type Table struct {
	count   int // occupied + tombstone entries
	entries []entry
}

// New returns an empty Table. Capacity is allocated lazily on first Set.
func New() *Table {
	return &Table{}
}

// Get reports the value stored for key, and whether key is present at all.
func (t *Table) Get(key *bytecode.ObjString) (bytecode.Value, bool) {
	if len(t.entries) == 0 {
		return bytecode.Nil(), false
	}
	e := t.find(key)
	if e.key == nil {
		return bytecode.Nil(), false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if needed. It
// reports true iff key was not already present.
func (t *Table) Set(key *bytecode.ObjString, value bytecode.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*loadFactorThreshold {
		t.grow()
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && !e.tombstone {
		t.count++
	}
	e.key = key
	e.value = value
	e.tombstone = false
	return isNew
}

// Delete replaces key's entry with a tombstone. count is deliberately not
// decremented: tombstones still count toward the load factor so that
// find's probe-until-empty termination condition stays correct.
func (t *Table) Delete(key *bytecode.ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.tombstone = true
	return true
}

// AddAllTo copies every occupied entry of t into dst. Used by OP_INHERIT
// to copy a superclass's method table into a subclass.
func (t *Table) AddAllTo(dst bytecode.MethodTable) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			dst.Set(t.entries[i].key, t.entries[i].value)
		}
	}
}

// ForEach visits every occupied entry. Iteration order is unspecified.
func (t *Table) ForEach(fn func(key *bytecode.ObjString, value bytecode.Value)) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			fn(t.entries[i].key, t.entries[i].value)
		}
	}
}

// FindString does a content-wise search for an interned string equal to
// chars, used only by the VM's intern set: it is the one place a string
// lookup can't rely on pointer identity, because the whole point is to
// discover whether a pointer already exists for this content.
func (t *Table) FindString(chars string, hash uint32) *bytecode.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & mask
	}
}

// RemoveWhite deletes every entry whose key object is unmarked. Called
// right before sweep to weakly clear the intern set of strings about to be
// collected, so the set never outlives the strings it names.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		if t.entries[i].key != nil && !t.entries[i].key.Marked {
			t.entries[i].key = nil
			t.entries[i].tombstone = true
		}
	}
}

// Mark marks every key object and every value in t, via the supplied
// callbacks, so the GC's generic mark phase can root this table without
// pkg/table importing the collector.
func (t *Table) Mark(markObj func(bytecode.Obj), markValue func(bytecode.Value)) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			markObj(t.entries[i].key)
			markValue(t.entries[i].value)
		}
	}
}

// find walks the probe sequence for key until it hits a matching key or an
// empty (non-tombstone) slot, returning the first tombstone seen along the
// way if the key isn't present — this lets Set reuse tombstone slots.
func (t *Table) find(key *bytecode.ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[index]
		if e.key == nil {
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := minCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for i := range old {
		if old[i].key == nil {
			continue
		}
		e := t.find(old[i].key)
		e.key = old[i].key
		e.value = old[i].value
		t.count++
	}
}

// Count reports the number of occupied-or-tombstone slots, exposed for
// tests that check the growth heuristic.
func (t *Table) Count() int { return t.count }

// Capacity reports the table's current slot count.
func (t *Table) Capacity() int { return len(t.entries) }
