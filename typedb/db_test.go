package typedb

import (
	"errors"
	"testing"

	tyerrors "github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/lines"
)

func u64(v uint64) *uint64 { return &v }

func testEntries() []Entry {
	return []Entry{
		{Goff: InfoOffset(0x10), Type: &Base{Name: "u32", Encoding: EncodingUnsigned, ByteSize: 4}},
		{Goff: InfoOffset(0x20), Type: &Struct{Name: "Pair", ByteSize: 8}},
		{Goff: InfoOffset(0x30), Type: &Array{Element: InfoOffset(0x10), Count: u64(4)}},
		{Goff: InfoOffset(0x40), Type: &Struct{Name: "Pair", ByteSize: 16}},
		{Goff: InfoOffset(0x50), Type: &Struct{ByteSize: 1}},
		{Goff: InfoOffset(0x60), Type: &Subroutine{}},
		{Goff: TypesOffset(0x10), Type: &Struct{Name: "Pair", ByteSize: 4}},
	}
}

func TestNameFromGoff(t *testing.T) {
	db, err := New(testEntries(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		goff Goff
		want string
		ok   bool
	}{
		{"base", InfoOffset(0x10), "u32", true},
		{"struct", InfoOffset(0x20), "Pair", true},
		{"array is anonymous", InfoOffset(0x30), "", false},
		{"anonymous struct", InfoOffset(0x50), "", false},
		{"subroutine is anonymous", InfoOffset(0x60), "", false},
		{"types section", TypesOffset(0x10), "Pair", true},
		{"unknown goff", InfoOffset(0x999), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := db.NameFromGoff(tt.goff)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NameFromGoff(%v) = %q, %v; want %q, %v", tt.goff, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNameResolutionIsTotal(t *testing.T) {
	db, err := New(testEntries(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for g, ty := range db.All() {
		name, ok := db.NameFromGoff(g)
		declared, hasName := ty.DeclName()
		if ok != hasName || name != declared {
			t.Errorf("NameFromGoff(%v) = %q, %v; DeclName = %q, %v", g, name, ok, declared, hasName)
		}
	}
}

func TestTypesByName(t *testing.T) {
	db, err := New(testEntries(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	pairs := db.TypesByName("Pair")
	want := []Goff{InfoOffset(0x20), InfoOffset(0x40), TypesOffset(0x10)}
	if len(pairs) != len(want) {
		t.Fatalf("TypesByName(Pair) returned %d entries, want %d", len(pairs), len(want))
	}
	for i, e := range pairs {
		if e.Goff != want[i] {
			t.Errorf("entry %d goff = %v, want %v", i, e.Goff, want[i])
		}
	}

	if got := db.TypesByName("Nope"); len(got) != 0 {
		t.Errorf("TypesByName(Nope) = %v, want empty", got)
	}
	if got := db.TypesByName(""); len(got) != 0 {
		t.Errorf("anonymous entries must not be indexed under the empty name, got %d", len(got))
	}
}

func TestTypeFromGoff(t *testing.T) {
	db, err := New(testEntries(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	ty, ok := db.TypeFromGoff(InfoOffset(0x30))
	if !ok || ty.Kind() != KindArray {
		t.Errorf("TypeFromGoff(0x30) = %v, %v; want array", ty, ok)
	}
	if _, ok := db.TypeFromGoff(InfoOffset(0x31)); ok {
		t.Error("TypeFromGoff should miss for an offset inside an entry")
	}
	if db.TypeCount() != 7 {
		t.Errorf("TypeCount() = %d, want 7", db.TypeCount())
	}
}

func TestAllPreservesOrder(t *testing.T) {
	entries := testEntries()
	db, err := New(entries, Options{})
	if err != nil {
		t.Fatal(err)
	}
	i := 0
	for g := range db.All() {
		if g != entries[i].Goff {
			t.Errorf("entry %d = %v, want %v", i, g, entries[i].Goff)
		}
		i++
	}
	if i != len(entries) {
		t.Errorf("iterated %d entries, want %d", i, len(entries))
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	entries := append(testEntries(), Entry{Goff: InfoOffset(0x10), Type: &Base{Name: "u8", ByteSize: 1}})
	_, err := New(entries, Options{})
	if !errors.Is(err, &tyerrors.Error{Phase: tyerrors.PhaseQuery, Kind: tyerrors.KindDuplicate}) {
		t.Errorf("New with duplicate goff: err = %v, want duplicate", err)
	}

	_, err = New([]Entry{{Goff: InfoOffset(1)}}, Options{})
	if err == nil {
		t.Error("New should reject nil types")
	}
}

func TestLookupLineRow(t *testing.T) {
	db, err := New(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := db.LookupLineRow(0x1000); ok {
		t.Error("snapshot without line table should miss")
	}
	if db.PointerSize() != DefaultPointerSize {
		t.Errorf("PointerSize() = %d, want %d", db.PointerSize(), DefaultPointerSize)
	}

	b := lines.NewBuilder()
	b.Add(0x1000, 0x1010, lines.Row{File: "main.rs", Line: u64(7)})
	db, err = New(nil, Options{Lines: b.Build(), PointerSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	row, ok := db.LookupLineRow(0x1004)
	if !ok || row.File != "main.rs" || *row.Line != 7 {
		t.Errorf("LookupLineRow(0x1004) = %+v, %v", row, ok)
	}
	if db.PointerSize() != 4 {
		t.Errorf("PointerSize() = %d, want 4", db.PointerSize())
	}
}
