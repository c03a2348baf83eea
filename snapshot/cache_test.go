package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	tyerrors "github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/lines"
	"github.com/wippyai/tysh/typedb"
)

func u64(v uint64) *uint64 { return &v }

func sample(t *testing.T) *typedb.Types {
	t.Helper()
	u32 := typedb.InfoOffset(0x10)
	pair := typedb.InfoOffset(0x20)
	some := typedb.InfoOffset(0x30)
	ret := u32

	shape, err := typedb.NewShapeMany(
		typedb.Member{Name: "__tag", Type: u32, Artificial: true},
		[]typedb.Arm{
			{Variant: typedb.Variant{Member: typedb.Member{Name: "None", Type: pair}}},
			{Value: u64(1), Variant: typedb.Variant{Member: typedb.Member{Name: "Some", Type: some, Alignment: u64(4)}}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	b := lines.NewBuilder()
	b.Add(0x1000, 0x1010, lines.Row{File: "src/main.rs", Line: u64(3), Column: u64(9)})
	b.Add(0x1010, 0x1020, lines.Row{File: "src/lib.rs"})

	db, err := typedb.New([]typedb.Entry{
		{Goff: u32, Type: &typedb.Base{Name: "u32", ByteSize: 4, Encoding: typedb.EncodingUnsigned, Alignment: u64(4)}},
		{Goff: pair, Type: &typedb.Struct{
			Name: "Pair", ByteSize: 8, Alignment: u64(4), TupleLike: true,
			TemplateParams: []typedb.TemplateParam{{Name: "T", Type: u32}},
			Members:        []typedb.Member{{Name: "__0", Type: u32}, {Name: "__1", Type: u32, Offset: 4}},
		}},
		{Goff: some, Type: &typedb.Struct{Name: "Some", ByteSize: 8}},
		{Goff: typedb.InfoOffset(0x40), Type: &typedb.Pointer{Name: "*Pair", Pointee: pair, HasPointee: true}},
		{Goff: typedb.InfoOffset(0x48), Type: &typedb.Pointer{Name: "*void"}},
		{Goff: typedb.InfoOffset(0x50), Type: &typedb.Array{Element: u32, Count: u64(3), LowerBound: 1}},
		{Goff: typedb.InfoOffset(0x58), Type: &typedb.Array{Element: u32}},
		{Goff: typedb.InfoOffset(0x60), Type: &typedb.Enum{Name: "Option<u32>", ByteSize: 8, VariantPart: typedb.VariantPart{Shape: shape}}},
		{Goff: typedb.InfoOffset(0x68), Type: &typedb.Enum{Name: "Wrap", VariantPart: typedb.VariantPart{Shape: typedb.ShapeOne{
			Variant: typedb.Variant{Member: typedb.Member{Name: "Wrap", Type: pair}},
		}}}},
		{Goff: typedb.InfoOffset(0x70), Type: &typedb.Enum{Name: "Never", VariantPart: typedb.VariantPart{Shape: typedb.ShapeZero{}}}},
		{Goff: typedb.InfoOffset(0x78), Type: &typedb.CEnum{Name: "Ordering", ByteSize: 1, Alignment: 1, Enumerators: []typedb.Enumerator{
			{Name: "Equal", Value: 0}, {Name: "Less", Value: 0xffffffffffffffff},
		}}},
		{Goff: typedb.InfoOffset(0x80), Type: &typedb.Union{Name: "U", Members: []typedb.Member{{Name: "a", Type: u32}}}},
		{Goff: typedb.InfoOffset(0x88), Type: &typedb.Subroutine{Return: &ret, Params: []typedb.Goff{u32, pair}}},
		{Goff: typedb.TypesOffset(0x90), Type: &typedb.Subroutine{}},
	}, typedb.Options{Lines: b.Build(), PointerSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func assertSameSnapshot(t *testing.T, got, want *typedb.Types) {
	t.Helper()
	if got.TypeCount() != want.TypeCount() {
		t.Fatalf("TypeCount() = %d, want %d", got.TypeCount(), want.TypeCount())
	}
	if got.PointerSize() != want.PointerSize() {
		t.Errorf("PointerSize() = %d, want %d", got.PointerSize(), want.PointerSize())
	}
	for g, wt := range want.All() {
		gt, ok := got.TypeFromGoff(g)
		if !ok {
			t.Errorf("missing %s", g)
			continue
		}
		if !reflect.DeepEqual(gt, wt) {
			t.Errorf("%s: got %#v, want %#v", g, gt, wt)
		}
	}
	if !reflect.DeepEqual(got.Lines().Ranges(), want.Lines().Ranges()) {
		t.Errorf("line ranges differ: got %v, want %v", got.Lines().Ranges(), want.Lines().Ranges())
	}
}

func TestEncodeDecode(t *testing.T) {
	want := sample(t)
	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	assertSameSnapshot(t, got, want)

	row, ok := got.LookupLineRow(0x1004)
	if !ok || row.String() != "src/main.rs:3:9" {
		t.Errorf("LookupLineRow = %v, %v", row, ok)
	}
}

func TestDecodeRejectsOtherVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&payload{Version: formatVersion + 1}); err != nil {
		t.Fatal(err)
	}
	_, err := Decode(&buf)
	if !errors.Is(err, &tyerrors.Error{Phase: tyerrors.PhaseCache, Kind: tyerrors.KindUnsupported}) {
		t.Errorf("err = %v, want cache/unsupported", err)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	p := payload{Version: formatVersion, Entries: []wireEntry{{Kind: 99}}}
	if err := msgpack.NewEncoder(&buf).Encode(&p); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(&buf); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	key := Key([]byte("binary contents"))
	want := sample(t)

	if _, ok, err := Load(dir, key); ok || err != nil {
		t.Fatalf("Load before Save = %v, %v; want miss", ok, err)
	}
	if err := Save(dir, key, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Load(dir, key)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	assertSameSnapshot(t, got, want)

	leftovers, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestLoadCorruptIsMiss(t *testing.T) {
	dir := t.TempDir()
	key := Key([]byte("x"))
	if err := os.WriteFile(filepath.Join(dir, key+fileExt), []byte{0xc1, 0x00, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	db, ok, err := Load(dir, key)
	if err != nil || ok || db != nil {
		t.Errorf("Load = %v, %v, %v; want miss", db, ok, err)
	}
}

func TestKey(t *testing.T) {
	a, b := Key([]byte("a")), Key([]byte("b"))
	if len(a) != 64 {
		t.Errorf("len(Key) = %d, want 64", len(a))
	}
	if a == b {
		t.Error("different inputs share a key")
	}
	if a != Key([]byte("a")) {
		t.Error("Key is not stable")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "tysh") {
		t.Errorf("DefaultDir() = %q", dir)
	}
}
