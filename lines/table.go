package lines

import (
	"fmt"
	"sort"
)

// Row is a source position. Line and Column are nil when the line program
// did not record them.
type Row struct {
	Line   *uint64
	Column *uint64
	File   string
}

// String renders file:line:column with ? for unknown parts.
func (r Row) String() string {
	line, col := "?", "?"
	if r.Line != nil {
		line = fmt.Sprintf("%d", *r.Line)
	}
	if r.Column != nil {
		col = fmt.Sprintf("%d", *r.Column)
	}
	return r.File + ":" + line + ":" + col
}

// Range covers addresses in [Start, End).
type Range struct {
	Row   Row
	Start uint64
	End   uint64
}

// Table is an immutable, sorted line table.
type Table struct {
	ranges []Range
	// maxEnd[i] is the largest End among ranges[:i+1]
	maxEnd []uint64
}

// Builder accumulates ranges for a Table.
type Builder struct {
	ranges []Range
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records that [start, end) maps to row. Empty ranges are dropped.
func (b *Builder) Add(start, end uint64, row Row) {
	if end <= start {
		return
	}
	b.ranges = append(b.ranges, Range{Start: start, End: end, Row: row})
}

// Len returns the number of ranges added so far.
func (b *Builder) Len() int {
	return len(b.ranges)
}

// Build sorts the ranges by start address and returns the table.
func (b *Builder) Build() *Table {
	ranges := make([]Range, len(b.ranges))
	copy(ranges, b.ranges)
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})
	maxEnd := make([]uint64, len(ranges))
	var hi uint64
	for i, r := range ranges {
		hi = max(hi, r.End)
		maxEnd[i] = hi
	}
	return &Table{ranges: ranges, maxEnd: maxEnd}
}

// Lookup returns the row whose range contains addr. When ranges overlap,
// the one starting closest below addr wins.
func (t *Table) Lookup(addr uint64) (Row, bool) {
	if t == nil || len(t.ranges) == 0 {
		return Row{}, false
	}
	// first range starting after addr
	i := sort.Search(len(t.ranges), func(i int) bool {
		return t.ranges[i].Start > addr
	})
	for j := i - 1; j >= 0 && t.maxEnd[j] > addr; j-- {
		if r := t.ranges[j]; addr < r.End {
			return r.Row, true
		}
	}
	return Row{}, false
}

// Ranges returns the sorted ranges. The slice must not be modified.
func (t *Table) Ranges() []Range {
	if t == nil {
		return nil
	}
	return t.ranges
}

// Len returns the number of ranges.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranges)
}
