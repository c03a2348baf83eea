package typedb

import (
	"iter"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/lines"
)

// DefaultPointerSize is used when the loader could not determine the
// target's address width.
const DefaultPointerSize = 8

// Entry pairs a type with its address.
type Entry struct {
	Type Type
	Goff Goff
}

// Resolver is the read access that layout and rendering need.
type Resolver interface {
	TypeFromGoff(g Goff) (Type, bool)
	NameFromGoff(g Goff) (string, bool)
}

// Options configures a snapshot.
type Options struct {
	Lines       *lines.Table
	PointerSize uint64
}

// Types is an immutable snapshot of every type entry in one binary.
type Types struct {
	lines       *lines.Table
	index       map[Goff]int
	byName      map[string][]int
	entries     []Entry
	pointerSize uint64
}

// New builds a snapshot over entries, which are kept in the given order.
// Duplicate goffs and nil types are rejected.
func New(entries []Entry, opts Options) (*Types, error) {
	db := &Types{
		lines:       opts.Lines,
		index:       make(map[Goff]int, len(entries)),
		byName:      make(map[string][]int),
		entries:     make([]Entry, 0, len(entries)),
		pointerSize: opts.PointerSize,
	}
	if db.pointerSize == 0 {
		db.pointerSize = DefaultPointerSize
	}

	for _, e := range entries {
		if e.Type == nil {
			return nil, errors.InvalidData(errors.PhaseQuery, e.Goff.String(), "nil type entry")
		}
		if _, dup := db.index[e.Goff]; dup {
			return nil, errors.Duplicate(errors.PhaseQuery, e.Goff.String())
		}
		i := len(db.entries)
		db.entries = append(db.entries, e)
		db.index[e.Goff] = i
		if name, ok := e.Type.DeclName(); ok {
			db.byName[name] = append(db.byName[name], i)
		}
	}
	return db, nil
}

// TypeCount returns the number of entries.
func (db *Types) TypeCount() int {
	return len(db.entries)
}

// PointerSize returns the target's pointer width in bytes.
func (db *Types) PointerSize() uint64 {
	return db.pointerSize
}

// Lines returns the line table, which may be nil.
func (db *Types) Lines() *lines.Table {
	return db.lines
}

// All iterates every entry in snapshot order.
func (db *Types) All() iter.Seq2[Goff, Type] {
	return func(yield func(Goff, Type) bool) {
		for _, e := range db.entries {
			if !yield(e.Goff, e.Type) {
				return
			}
		}
	}
}

// TypeFromGoff returns the entry at g.
func (db *Types) TypeFromGoff(g Goff) (Type, bool) {
	i, ok := db.index[g]
	if !ok {
		return nil, false
	}
	return db.entries[i].Type, true
}

// NameFromGoff returns the declared name of the entry at g. Anonymous
// entries and unknown goffs both report false.
func (db *Types) NameFromGoff(g Goff) (string, bool) {
	t, ok := db.TypeFromGoff(g)
	if !ok {
		return "", false
	}
	return t.DeclName()
}

// TypesByName returns every entry whose declared name equals name, in
// snapshot order.
func (db *Types) TypesByName(name string) []Entry {
	idx := db.byName[name]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = db.entries[j]
	}
	return out
}

// LookupLineRow maps a program address to its source position.
func (db *Types) LookupLineRow(addr uint64) (lines.Row, bool) {
	if db.lines == nil {
		return lines.Row{}, false
	}
	return db.lines.Lookup(addr)
}
