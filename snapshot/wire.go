package snapshot

import (
	"fmt"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/lines"
	"github.com/wippyai/tysh/typedb"
)

// formatVersion changes whenever the payload layout does.
const formatVersion uint16 = 1

type payload struct {
	Version     uint16      `msgpack:"v"`
	PointerSize uint64      `msgpack:"ptr"`
	Entries     []wireEntry `msgpack:"types"`
	Lines       []wireRange `msgpack:"lines,omitempty"`
}

type wireGoff struct {
	Section uint8  `msgpack:"s"`
	Offset  uint64 `msgpack:"o"`
}

type wireMember struct {
	Align      *uint64  `msgpack:"al,omitempty"`
	Name       string   `msgpack:"n,omitempty"`
	Type       wireGoff `msgpack:"t"`
	Offset     uint64   `msgpack:"o"`
	Artificial bool     `msgpack:"art,omitempty"`
}

type wireParam struct {
	Name string   `msgpack:"n"`
	Type wireGoff `msgpack:"t"`
}

type wireArm struct {
	Value  *uint64    `msgpack:"v"`
	Member wireMember `msgpack:"m"`
}

type wireEnumerator struct {
	Name  string `msgpack:"n"`
	Value uint64 `msgpack:"v"`
}

// wireEntry is a flat record holding the fields of every type kind; Kind
// says which of them are meaningful.
type wireEntry struct {
	Align       *uint64          `msgpack:"al,omitempty"`
	Count       *uint64          `msgpack:"cnt,omitempty"`
	Ref         *wireGoff        `msgpack:"ref,omitempty"`
	Disc        *wireMember      `msgpack:"disc,omitempty"`
	Name        string           `msgpack:"n,omitempty"`
	Params      []wireParam      `msgpack:"tp,omitempty"`
	Members     []wireMember     `msgpack:"m,omitempty"`
	Arms        []wireArm        `msgpack:"arms,omitempty"`
	Enumerators []wireEnumerator `msgpack:"e,omitempty"`
	Args        []wireGoff       `msgpack:"args,omitempty"`
	Goff        wireGoff         `msgpack:"g"`
	ByteSize    uint64           `msgpack:"sz,omitempty"`
	LowerBound  uint64           `msgpack:"lb,omitempty"`
	Kind        uint8            `msgpack:"k"`
	Encoding    uint8            `msgpack:"enc,omitempty"`
	Shape       uint8            `msgpack:"sh,omitempty"`
	Tuple       bool             `msgpack:"tup,omitempty"`
	HasRef      bool             `msgpack:"hr,omitempty"`
}

type wireRange struct {
	Line   *uint64 `msgpack:"l,omitempty"`
	Column *uint64 `msgpack:"c,omitempty"`
	File   string  `msgpack:"f"`
	Start  uint64  `msgpack:"s"`
	End    uint64  `msgpack:"e"`
}

const (
	shapeZero uint8 = iota
	shapeOne
	shapeMany
)

func toWireGoff(g typedb.Goff) wireGoff {
	return wireGoff{Section: uint8(g.Section), Offset: g.Offset}
}

func (w wireGoff) goff() typedb.Goff {
	return typedb.Goff{Section: typedb.Section(w.Section), Offset: w.Offset}
}

func toWireMember(m typedb.Member) wireMember {
	return wireMember{
		Align:      m.Alignment,
		Name:       m.Name,
		Type:       toWireGoff(m.Type),
		Offset:     m.Offset,
		Artificial: m.Artificial,
	}
}

func (w wireMember) member() typedb.Member {
	return typedb.Member{
		Alignment:  w.Align,
		Name:       w.Name,
		Type:       w.Type.goff(),
		Offset:     w.Offset,
		Artificial: w.Artificial,
	}
}

func toWireMembers(ms []typedb.Member) []wireMember {
	if len(ms) == 0 {
		return nil
	}
	out := make([]wireMember, len(ms))
	for i, m := range ms {
		out[i] = toWireMember(m)
	}
	return out
}

func members(ws []wireMember) []typedb.Member {
	if len(ws) == 0 {
		return nil
	}
	out := make([]typedb.Member, len(ws))
	for i, w := range ws {
		out[i] = w.member()
	}
	return out
}

func toWireParams(ps []typedb.TemplateParam) []wireParam {
	if len(ps) == 0 {
		return nil
	}
	out := make([]wireParam, len(ps))
	for i, p := range ps {
		out[i] = wireParam{Name: p.Name, Type: toWireGoff(p.Type)}
	}
	return out
}

func params(ws []wireParam) []typedb.TemplateParam {
	if len(ws) == 0 {
		return nil
	}
	out := make([]typedb.TemplateParam, len(ws))
	for i, w := range ws {
		out[i] = typedb.TemplateParam{Name: w.Name, Type: w.Type.goff()}
	}
	return out
}

func toWire(g typedb.Goff, t typedb.Type) wireEntry {
	w := wireEntry{Goff: toWireGoff(g), Kind: uint8(t.Kind())}
	switch typ := t.(type) {
	case *typedb.Base:
		w.Name, w.ByteSize, w.Align, w.Encoding = typ.Name, typ.ByteSize, typ.Alignment, uint8(typ.Encoding)
	case *typedb.Pointer:
		w.Name, w.HasRef = typ.Name, typ.HasPointee
		if typ.HasPointee {
			ref := toWireGoff(typ.Pointee)
			w.Ref = &ref
		}
	case *typedb.Array:
		ref := toWireGoff(typ.Element)
		w.Ref, w.Count, w.LowerBound = &ref, typ.Count, typ.LowerBound
	case *typedb.Struct:
		w.Name, w.ByteSize, w.Align, w.Tuple = typ.Name, typ.ByteSize, typ.Alignment, typ.TupleLike
		w.Params = toWireParams(typ.TemplateParams)
		w.Members = toWireMembers(typ.Members)
	case *typedb.Enum:
		w.Name, w.ByteSize, w.Align = typ.Name, typ.ByteSize, typ.Alignment
		w.Params = toWireParams(typ.TemplateParams)
		switch sh := typ.VariantPart.Shape.(type) {
		case typedb.ShapeOne:
			w.Shape = shapeOne
			w.Arms = []wireArm{{Member: toWireMember(sh.Variant.Member)}}
		case *typedb.ShapeMany:
			w.Shape = shapeMany
			disc := toWireMember(sh.Discriminant)
			w.Disc = &disc
			for _, arm := range sh.Arms() {
				w.Arms = append(w.Arms, wireArm{Value: arm.Value, Member: toWireMember(arm.Variant.Member)})
			}
		default:
			w.Shape = shapeZero
		}
	case *typedb.CEnum:
		align := typ.Alignment
		w.Name, w.ByteSize, w.Align = typ.Name, typ.ByteSize, &align
		for _, e := range typ.Enumerators {
			w.Enumerators = append(w.Enumerators, wireEnumerator{Name: e.Name, Value: e.Value})
		}
	case *typedb.Union:
		w.Name = typ.Name
		w.Members = toWireMembers(typ.Members)
	case *typedb.Subroutine:
		if typ.Return != nil {
			ref := toWireGoff(*typ.Return)
			w.Ref = &ref
		}
		for _, p := range typ.Params {
			w.Args = append(w.Args, toWireGoff(p))
		}
	}
	return w
}

func (w wireEntry) entry() (typedb.Entry, error) {
	g := w.Goff.goff()
	bad := func(detail string) error {
		return errors.InvalidData(errors.PhaseCache, g.String(), detail)
	}

	var t typedb.Type
	switch typedb.Kind(w.Kind) {
	case typedb.KindBase:
		t = &typedb.Base{Name: w.Name, ByteSize: w.ByteSize, Alignment: w.Align, Encoding: typedb.Encoding(w.Encoding)}
	case typedb.KindPointer:
		p := &typedb.Pointer{Name: w.Name, HasPointee: w.HasRef}
		if w.HasRef {
			if w.Ref == nil {
				return typedb.Entry{}, bad("pointer without pointee")
			}
			p.Pointee = w.Ref.goff()
		}
		t = p
	case typedb.KindArray:
		if w.Ref == nil {
			return typedb.Entry{}, bad("array without element type")
		}
		t = &typedb.Array{Element: w.Ref.goff(), Count: w.Count, LowerBound: w.LowerBound}
	case typedb.KindStruct:
		t = &typedb.Struct{
			Name:           w.Name,
			ByteSize:       w.ByteSize,
			Alignment:      w.Align,
			TupleLike:      w.Tuple,
			TemplateParams: params(w.Params),
			Members:        members(w.Members),
		}
	case typedb.KindEnum:
		shape, err := w.shape()
		if err != nil {
			return typedb.Entry{}, err
		}
		t = &typedb.Enum{
			Name:           w.Name,
			ByteSize:       w.ByteSize,
			Alignment:      w.Align,
			TemplateParams: params(w.Params),
			VariantPart:    typedb.VariantPart{Shape: shape},
		}
	case typedb.KindCEnum:
		e := &typedb.CEnum{Name: w.Name, ByteSize: w.ByteSize}
		if w.Align != nil {
			e.Alignment = *w.Align
		}
		for _, we := range w.Enumerators {
			e.Enumerators = append(e.Enumerators, typedb.Enumerator{Name: we.Name, Value: we.Value})
		}
		t = e
	case typedb.KindUnion:
		t = &typedb.Union{Name: w.Name, Members: members(w.Members)}
	case typedb.KindSubroutine:
		s := &typedb.Subroutine{}
		if w.Ref != nil {
			ret := w.Ref.goff()
			s.Return = &ret
		}
		for _, a := range w.Args {
			s.Params = append(s.Params, a.goff())
		}
		t = s
	default:
		return typedb.Entry{}, bad(fmt.Sprintf("unknown kind %d", w.Kind))
	}
	return typedb.Entry{Goff: g, Type: t}, nil
}

func (w wireEntry) shape() (typedb.VariantShape, error) {
	switch w.Shape {
	case shapeZero:
		return typedb.ShapeZero{}, nil
	case shapeOne:
		if len(w.Arms) != 1 {
			return nil, errors.InvalidData(errors.PhaseCache, w.Goff.goff().String(), "single-variant enum needs one arm")
		}
		return typedb.ShapeOne{Variant: typedb.Variant{Member: w.Arms[0].Member.member()}}, nil
	case shapeMany:
		if w.Disc == nil {
			return nil, errors.InvalidData(errors.PhaseCache, w.Goff.goff().String(), "discriminated enum without discriminant")
		}
		arms := make([]typedb.Arm, len(w.Arms))
		for i, a := range w.Arms {
			arms[i] = typedb.Arm{Value: a.Value, Variant: typedb.Variant{Member: a.Member.member()}}
		}
		return typedb.NewShapeMany(w.Disc.member(), arms)
	}
	return nil, errors.InvalidData(errors.PhaseCache, w.Goff.goff().String(), fmt.Sprintf("unknown shape %d", w.Shape))
}

func toWireRanges(t *lines.Table) []wireRange {
	rs := t.Ranges()
	if len(rs) == 0 {
		return nil
	}
	out := make([]wireRange, len(rs))
	for i, r := range rs {
		out[i] = wireRange{Line: r.Row.Line, Column: r.Row.Column, File: r.Row.File, Start: r.Start, End: r.End}
	}
	return out
}

func table(ws []wireRange) *lines.Table {
	if len(ws) == 0 {
		return nil
	}
	b := lines.NewBuilder()
	for _, w := range ws {
		b.Add(w.Start, w.End, lines.Row{Line: w.Line, Column: w.Column, File: w.File})
	}
	return b.Build()
}
