package layout

import (
	"math/bits"

	"go.uber.org/zap"

	"github.com/wippyai/tysh/typedb"
)

// DefaultMaxDepth bounds how many element types a single query may follow.
const DefaultMaxDepth = 64

type result struct {
	value uint64
	ok    bool
}

// Calculator derives size and alignment over one snapshot. Results are
// memoized per goff; the snapshot is immutable so the cache never goes stale.
// Answers cut off by the depth limit are recomputed on every query.
type Calculator struct {
	db          typedb.Resolver
	sizes       map[typedb.Goff]result
	aligns      map[typedb.Goff]result
	pointerSize uint64
	maxDepth    int
}

// NewCalculator returns a calculator over db for a target whose pointers
// are pointerSize bytes wide. A zero pointerSize uses typedb.DefaultPointerSize.
func NewCalculator(db typedb.Resolver, pointerSize uint64) *Calculator {
	if pointerSize == 0 {
		pointerSize = typedb.DefaultPointerSize
	}
	return &Calculator{
		db:          db,
		sizes:       make(map[typedb.Goff]result),
		aligns:      make(map[typedb.Goff]result),
		pointerSize: pointerSize,
		maxDepth:    DefaultMaxDepth,
	}
}

// SetMaxDepth changes the recursion bound. Values below 1 are ignored.
func (c *Calculator) SetMaxDepth(n int) {
	if n >= 1 {
		c.maxDepth = n
	}
}

// SizeOf returns the byte size of t.
func (c *Calculator) SizeOf(t typedb.Type) (uint64, bool) {
	m := c.size(t, 0)
	return m.value, m.ok
}

// AlignOf returns the byte alignment of t.
func (c *Calculator) AlignOf(t typedb.Type) (uint64, bool) {
	m := c.align(t, 0)
	return m.value, m.ok
}

// SizeOfGoff returns the byte size of the entry at g.
func (c *Calculator) SizeOfGoff(g typedb.Goff) (uint64, bool) {
	m := c.sizeGoff(g, 0)
	return m.value, m.ok
}

// AlignOfGoff returns the byte alignment of the entry at g.
func (c *Calculator) AlignOfGoff(g typedb.Goff) (uint64, bool) {
	m := c.alignGoff(g, 0)
	return m.value, m.ok
}

// measure is one size or alignment answer. cut marks an answer that failed
// because the depth limit was reached somewhere below it; such answers
// depend on the query path and are never memoized.
type measure struct {
	result
	cut bool
}

func known(v uint64) measure { return measure{result: result{value: v, ok: true}} }

var unknown = measure{}

func fromOptional(v *uint64) measure {
	if v == nil {
		return unknown
	}
	return known(*v)
}

func (c *Calculator) size(t typedb.Type, depth int) measure {
	switch typ := t.(type) {
	case *typedb.Base:
		return known(typ.ByteSize)
	case *typedb.Pointer:
		return known(c.pointerSize)
	case *typedb.Array:
		if typ.Count == nil {
			return unknown
		}
		elem := c.sizeGoff(typ.Element, depth+1)
		if !elem.ok {
			return elem
		}
		hi, lo := bits.Mul64(elem.value, *typ.Count)
		if hi != 0 {
			Logger().Debug("array size overflows uint64",
				zap.Stringer("element", typ.Element),
				zap.Uint64("count", *typ.Count))
			return unknown
		}
		return known(lo)
	case *typedb.Struct:
		return known(typ.ByteSize)
	case *typedb.Enum:
		return known(typ.ByteSize)
	case *typedb.CEnum:
		return known(typ.ByteSize)
	default:
		// unions and subroutines have no size contract
		return unknown
	}
}

func (c *Calculator) align(t typedb.Type, depth int) measure {
	switch typ := t.(type) {
	case *typedb.Base:
		if typ.Alignment != nil {
			return known(*typ.Alignment)
		}
		if typ.ByteSize == 0 {
			return known(1)
		}
		return known(typ.ByteSize)
	case *typedb.Pointer:
		return known(c.pointerSize)
	case *typedb.Array:
		return c.alignGoff(typ.Element, depth+1)
	case *typedb.Struct:
		return fromOptional(typ.Alignment)
	case *typedb.Enum:
		return fromOptional(typ.Alignment)
	case *typedb.CEnum:
		return known(typ.Alignment)
	default:
		return unknown
	}
}

func (c *Calculator) sizeGoff(g typedb.Goff, depth int) measure {
	if r, ok := c.sizes[g]; ok {
		return measure{result: r}
	}
	t, m, found := c.lookup(g, depth)
	if !found {
		return m
	}
	m = c.size(t, depth)
	if !m.cut {
		c.sizes[g] = m.result
	}
	return m
}

func (c *Calculator) alignGoff(g typedb.Goff, depth int) measure {
	if r, ok := c.aligns[g]; ok {
		return measure{result: r}
	}
	t, m, found := c.lookup(g, depth)
	if !found {
		return m
	}
	m = c.align(t, depth)
	if !m.cut {
		c.aligns[g] = m.result
	}
	return m
}

// lookup resolves g for a recursive step. When it fails, the returned
// measure is the answer to report, marked cut for a depth cutoff.
func (c *Calculator) lookup(g typedb.Goff, depth int) (typedb.Type, measure, bool) {
	if depth > c.maxDepth {
		Logger().Debug("layout recursion limit reached",
			zap.Stringer("goff", g),
			zap.Int("depth", depth))
		return nil, measure{cut: true}, false
	}
	t, ok := c.db.TypeFromGoff(g)
	if !ok {
		Logger().Debug("layout lookup missed", zap.Stringer("goff", g))
		return nil, unknown, false
	}
	return t, unknown, true
}
