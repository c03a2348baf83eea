package loader

import (
	"debug/dwarf"
	"encoding/binary"
	"testing"

	"github.com/wippyai/tysh/typedb"
)

// DWARF form codes used by the test assembler.
const (
	formData1        = 0x0b
	formString       = 0x08
	formSdata        = 0x0d
	formRef4         = 0x13
	formExprloc      = 0x18
	formFlagPresent  = 0x19
	cuHeaderSize     = 11
	testAddressBytes = 8
)

type attrForm struct {
	attr dwarf.Attr
	form uint64
}

// dwarfAsm assembles a single DWARF 4 compilation unit. DIE offsets can be
// labeled and referenced with ref4 before they are defined.
type dwarfAsm struct {
	abbrev []byte
	info   []byte
	labels map[string]uint32
	fixups map[int]string
	codes  uint64
}

func newDwarfAsm() *dwarfAsm {
	return &dwarfAsm{
		info:   make([]byte, cuHeaderSize),
		labels: make(map[string]uint32),
		fixups: make(map[int]string),
	}
}

func appendULEB(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

func appendSLEB(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		b = append(b, c)
		if done {
			return b
		}
	}
}

func (a *dwarfAsm) abbr(tag dwarf.Tag, children bool, specs ...attrForm) uint64 {
	a.codes++
	a.abbrev = appendULEB(a.abbrev, a.codes)
	a.abbrev = appendULEB(a.abbrev, uint64(tag))
	if children {
		a.abbrev = append(a.abbrev, 1)
	} else {
		a.abbrev = append(a.abbrev, 0)
	}
	for _, s := range specs {
		a.abbrev = appendULEB(a.abbrev, uint64(s.attr))
		a.abbrev = appendULEB(a.abbrev, s.form)
	}
	a.abbrev = append(a.abbrev, 0, 0)
	return a.codes
}

func (a *dwarfAsm) die(code uint64, label string) *dwarfAsm {
	if label != "" {
		a.labels[label] = uint32(len(a.info))
	}
	a.info = appendULEB(a.info, code)
	return a
}

func (a *dwarfAsm) str(s string) *dwarfAsm {
	a.info = append(a.info, s...)
	a.info = append(a.info, 0)
	return a
}

func (a *dwarfAsm) u8(v uint8) *dwarfAsm {
	a.info = append(a.info, v)
	return a
}

func (a *dwarfAsm) sdata(v int64) *dwarfAsm {
	a.info = appendSLEB(a.info, v)
	return a
}

func (a *dwarfAsm) ref(label string) *dwarfAsm {
	a.fixups[len(a.info)] = label
	a.info = append(a.info, 0, 0, 0, 0)
	return a
}

func (a *dwarfAsm) expr(ops ...byte) *dwarfAsm {
	a.info = appendULEB(a.info, uint64(len(ops)))
	a.info = append(a.info, ops...)
	return a
}

// end closes the children of the most recent DIE that has them.
func (a *dwarfAsm) end() {
	a.info = append(a.info, 0)
}

func (a *dwarfAsm) goff(t *testing.T, label string) typedb.Goff {
	t.Helper()
	off, ok := a.labels[label]
	if !ok {
		t.Fatalf("no label %q", label)
	}
	return typedb.InfoOffset(uint64(off))
}

// sections returns the finished .debug_abbrev and .debug_info contents.
func (a *dwarfAsm) sections(t *testing.T) (abbrev, info []byte) {
	t.Helper()
	info = append([]byte(nil), a.info...)
	for at, label := range a.fixups {
		off, ok := a.labels[label]
		if !ok {
			t.Fatalf("undefined label %q", label)
		}
		binary.LittleEndian.PutUint32(info[at:], off)
	}
	binary.LittleEndian.PutUint32(info[0:], uint32(len(info)-4))
	binary.LittleEndian.PutUint16(info[4:], 4)
	binary.LittleEndian.PutUint32(info[6:], 0)
	info[10] = testAddressBytes
	return append(append([]byte(nil), a.abbrev...), 0), info
}

func (a *dwarfAsm) data(t *testing.T) *dwarf.Data {
	t.Helper()
	abbrev, info := a.sections(t)
	d, err := dwarf.New(abbrev, nil, nil, info, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("dwarf.New: %v", err)
	}
	return d
}

// rustUnit assembles a unit with the shapes rustc emits: tuple structs,
// a discriminated enum, a single-variant enum, pointers, arrays, a C-like
// enum, a subroutine type and a union. Types nest inside a namespace and
// inside the enum itself.
func rustUnit() *dwarfAsm {
	a := newDwarfAsm()
	name := attrForm{dwarf.AttrName, formString}
	size := attrForm{dwarf.AttrByteSize, formData1}
	align := attrForm{dwarf.AttrAlignment, formData1}
	typ := attrForm{dwarf.AttrType, formRef4}
	loc := attrForm{dwarf.AttrDataMemberLoc, formData1}

	cu := a.abbr(dwarf.TagCompileUnit, true, name)
	base := a.abbr(dwarf.TagBaseType, false, name, attrForm{dwarf.AttrEncoding, formData1}, size)
	structure := a.abbr(dwarf.TagStructType, true, name, size, align)
	leaf := a.abbr(dwarf.TagStructType, false, name, size)
	member := a.abbr(dwarf.TagMember, false, name, typ, loc)
	exprMember := a.abbr(dwarf.TagMember, false, name, typ, attrForm{dwarf.AttrDataMemberLoc, formExprloc})
	artificial := a.abbr(dwarf.TagMember, false, name, typ, loc, attrForm{dwarf.AttrArtificial, formFlagPresent})
	ptr := a.abbr(dwarf.TagPointerType, false, typ)
	voidPtr := a.abbr(dwarf.TagPointerType, false)
	array := a.abbr(dwarf.TagArrayType, true, typ)
	countRange := a.abbr(dwarf.TagSubrangeType, false, attrForm{dwarf.AttrCount, formData1})
	upperRange := a.abbr(dwarf.TagSubrangeType, false, attrForm{dwarf.AttrUpperBound, formSdata})
	ns := a.abbr(dwarf.TagNamespace, true, name)
	tparam := a.abbr(dwarf.TagTemplateTypeParameter, false, typ, name)
	part := a.abbr(dwarf.TagVariantPart, true, attrForm{dwarf.AttrDiscr, formRef4})
	plainPart := a.abbr(dwarf.TagVariantPart, true)
	variant := a.abbr(dwarf.TagVariant, true, attrForm{dwarf.AttrDiscrValue, formData1})
	fallback := a.abbr(dwarf.TagVariant, true)
	enum := a.abbr(dwarf.TagEnumerationType, true, name, size)
	enumerator := a.abbr(dwarf.TagEnumerator, false, name, attrForm{dwarf.AttrConstValue, formSdata})
	fn := a.abbr(dwarf.TagSubroutineType, true, typ)
	param := a.abbr(dwarf.TagFormalParameter, false, typ)
	union := a.abbr(dwarf.TagUnionType, true, name, size)
	unionMember := a.abbr(dwarf.TagMember, false, name, typ)

	a.die(cu, "").str("main.rs")
	{
		a.die(base, "u32").str("u32").u8(0x07).u8(4)
		a.die(base, "u8").str("u8").u8(0x07).u8(1)

		a.die(structure, "pair").str("Pair").u8(8).u8(4)
		a.die(member, "").str("__0").ref("u32").u8(0)
		a.die(exprMember, "").str("__1").ref("u8").expr(opPlusUconst, 4)
		a.end()

		a.die(ptr, "ppair").ref("pair")
		a.die(ptr, "pppair").ref("ppair")
		a.die(voidPtr, "pvoid")

		a.die(array, "arr3").ref("u32")
		a.die(countRange, "").u8(3)
		a.end()
		a.die(array, "arrUnknown").ref("u8")
		a.die(upperRange, "").sdata(-1)
		a.end()

		a.die(ns, "").str("option")
		{
			a.die(structure, "opt").str("Option<u32>").u8(8).u8(4)
			a.die(tparam, "").ref("u32").str("T")
			a.die(part, "").ref("tag")
			a.die(artificial, "tag").str("__tag").ref("u32").u8(0)
			a.die(variant, "").u8(0)
			a.die(member, "").str("None").ref("none").u8(0)
			a.end()
			a.die(variant, "").u8(1)
			a.die(member, "").str("Some").ref("some").u8(0)
			a.end()
			a.end() // variant part
			a.die(leaf, "none").str("None").u8(8)
			a.die(structure, "some").str("Some").u8(8).u8(4)
			a.die(member, "").str("__0").ref("u32").u8(4)
			a.end()
			a.end() // Option<u32>

			a.die(structure, "wrap").str("Wrapper").u8(8).u8(4)
			a.die(plainPart, "")
			a.die(fallback, "")
			a.die(member, "").str("Wrapper").ref("pair").u8(0)
			a.end()
			a.end()
			a.end()

			a.die(structure, "broken").str("Broken").u8(4).u8(4)
			a.die(plainPart, "")
			a.die(fallback, "")
			a.die(member, "").str("A").ref("u32").u8(0)
			a.end()
			a.die(fallback, "")
			a.die(member, "").str("B").ref("u32").u8(0)
			a.end()
			a.end()
			a.end()
		}
		a.end() // namespace

		a.die(enum, "ord").str("Ordering").u8(1)
		a.die(enumerator, "").str("Less").sdata(-1)
		a.die(enumerator, "").str("Equal").sdata(0)
		a.die(enumerator, "").str("Greater").sdata(1)
		a.end()

		a.die(fn, "fn").ref("u8")
		a.die(param, "").ref("u32")
		a.die(param, "").ref("pair")
		a.end()

		a.die(union, "union").str("U").u8(4)
		a.die(unionMember, "").str("a").ref("u32")
		a.die(unionMember, "").str("b").ref("u8")
		a.end()
	}
	a.end() // compile unit
	return a
}
