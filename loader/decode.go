package loader

import (
	"context"
	"debug/dwarf"
	"fmt"
	"io"
	"sort"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/lines"
	"github.com/wippyai/tysh/typedb"
)

// node is a DIE with its children read eagerly.
type node struct {
	*dwarf.Entry
	children []*node
}

type decoder struct {
	data        *dwarf.Data
	lines       *lines.Builder
	entries     []typedb.Entry
	pointerSize uint64
	skipped     int
}

func newDecoder(d *dwarf.Data) *decoder {
	return &decoder{data: d, lines: lines.NewBuilder()}
}

// run walks every unit in .debug_info.
func (d *decoder) run(ctx context.Context) error {
	r := d.data.Reader()
	units := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit, err := r.Next()
		if err != nil {
			return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read unit header")
		}
		if unit == nil {
			break
		}
		units++
		if d.pointerSize == 0 {
			if n := r.AddressSize(); n > 0 {
				d.pointerSize = uint64(n)
			}
		}

		var children []*node
		if unit.Children {
			if children, err = readChildren(r); err != nil {
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Goff(goffOf(unit.Offset).String()).
					Cause(err).
					Detail("read unit entries").
					Build()
			}
		}
		for _, n := range children {
			d.visit(n)
		}
		d.readLines(unit)
	}
	if units == 0 {
		return errors.New(errors.PhaseDecode, errors.KindNotFound).Detail("no compilation units in .debug_info").Build()
	}

	d.namePointers()
	return nil
}

func readChildren(r *dwarf.Reader) ([]*node, error) {
	var out []*node
	for {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e == nil || e.Tag == 0 {
			return out, nil
		}
		n := &node{Entry: e}
		if e.Children {
			if n.children, err = readChildren(r); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
}

// visit decodes n if it is a type and then descends into its children, so
// types declared inside namespaces, functions and other types are found.
func (d *decoder) visit(n *node) {
	var (
		t   typedb.Type
		err error
	)
	switch n.Tag {
	case dwarf.TagBaseType:
		t, err = d.base(n)
	case dwarf.TagPointerType, dwarf.TagReferenceType, dwarf.TagRvalueReferenceType:
		t = d.pointer(n)
	case dwarf.TagArrayType:
		t, err = d.array(n)
	case dwarf.TagStructType, dwarf.TagClassType:
		t, err = d.structure(n)
	case dwarf.TagEnumerationType:
		t, err = d.cenum(n)
	case dwarf.TagUnionType:
		t, err = d.union(n)
	case dwarf.TagSubroutineType:
		t = d.subroutine(n)
	}

	g := goffOf(n.Offset)
	switch {
	case err != nil:
		d.skipped++
		Logger().Warn("skipping type entry",
			zap.String("goff", g.String()),
			zap.Stringer("tag", n.Tag),
			zap.Error(err))
	case t != nil:
		d.entries = append(d.entries, typedb.Entry{Goff: g, Type: t})
	}

	for _, c := range n.children {
		d.visit(c)
	}
}

func (d *decoder) base(n *node) (typedb.Type, error) {
	size, _, err := unsignedAttr(n.Entry, dwarf.AttrByteSize)
	if err != nil {
		return nil, err
	}
	enc, _, err := unsignedAttr(n.Entry, dwarf.AttrEncoding)
	if err != nil {
		return nil, err
	}
	code, err := safecast.Conv[uint8](enc)
	if err != nil {
		return nil, errors.Overflow(errors.PhaseDecode, goffOf(n.Offset).String(), enc, "encoding")
	}
	align, err := optionalUnsigned(n.Entry, dwarf.AttrAlignment)
	if err != nil {
		return nil, err
	}
	return &typedb.Base{
		Name:      nameAttr(n.Entry),
		Encoding:  typedb.Encoding(code),
		ByteSize:  size,
		Alignment: align,
	}, nil
}

func (d *decoder) pointer(n *node) typedb.Type {
	pointee, ok := typeAttr(n.Entry)
	return &typedb.Pointer{Name: nameAttr(n.Entry), Pointee: pointee, HasPointee: ok}
}

func (d *decoder) array(n *node) (typedb.Type, error) {
	elem, ok := typeAttr(n.Entry)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseDecode, goffOf(n.Offset).String(), "array has no element type")
	}
	arr := &typedb.Array{Element: elem}
	for _, c := range n.children {
		if c.Tag != dwarf.TagSubrangeType {
			continue
		}
		lower, _, err := unsignedAttr(c.Entry, dwarf.AttrLowerBound)
		if err != nil {
			return nil, err
		}
		arr.LowerBound = lower
		arr.Count = subrangeCount(c.Entry, lower)
		break
	}
	return arr, nil
}

// subrangeCount returns the element count of a subrange, or nil when it is
// not a known constant.
func subrangeCount(e *dwarf.Entry, lower uint64) *uint64 {
	if v, ok := e.Val(dwarf.AttrCount).(int64); ok {
		if n, err := safecast.Conv[uint64](v); err == nil {
			return &n
		}
		return nil
	}
	// an upper bound of -1 is how compilers spell "unknown"
	upper, ok := e.Val(dwarf.AttrUpperBound).(int64)
	if !ok || upper < 0 {
		return nil
	}
	u, err := safecast.Conv[uint64](upper)
	if err != nil || u+1 < lower {
		return nil
	}
	n := u + 1 - lower
	return &n
}

func (d *decoder) structure(n *node) (typedb.Type, error) {
	size, _, err := unsignedAttr(n.Entry, dwarf.AttrByteSize)
	if err != nil {
		return nil, err
	}
	align, err := optionalUnsigned(n.Entry, dwarf.AttrAlignment)
	if err != nil {
		return nil, err
	}
	params := templateParams(n)

	for _, c := range n.children {
		if c.Tag != dwarf.TagVariantPart {
			continue
		}
		shape, err := d.variantPart(c)
		if err != nil {
			return nil, err
		}
		return &typedb.Enum{
			Name:           nameAttr(n.Entry),
			ByteSize:       size,
			Alignment:      align,
			TemplateParams: params,
			VariantPart:    typedb.VariantPart{Shape: shape},
		}, nil
	}

	members, err := memberList(n)
	if err != nil {
		return nil, err
	}
	tuple := len(members) > 0
	for _, m := range members {
		if !isTupleName(m.Name) {
			tuple = false
			break
		}
	}
	return &typedb.Struct{
		Name:           nameAttr(n.Entry),
		ByteSize:       size,
		Alignment:      align,
		TemplateParams: params,
		Members:        members,
		TupleLike:      tuple,
	}, nil
}

func templateParams(n *node) []typedb.TemplateParam {
	var params []typedb.TemplateParam
	for _, c := range n.children {
		if c.Tag != dwarf.TagTemplateTypeParameter {
			continue
		}
		t, ok := typeAttr(c.Entry)
		if !ok {
			continue
		}
		params = append(params, typedb.TemplateParam{Name: nameAttr(c.Entry), Type: t})
	}
	return params
}

// memberList returns the data members of n sorted by offset. Static
// members are not part of the layout and are left out.
func memberList(n *node) ([]typedb.Member, error) {
	var members []typedb.Member
	for _, c := range n.children {
		if c.Tag != dwarf.TagMember {
			continue
		}
		if flagAttr(c.Entry, dwarf.AttrExternal) || flagAttr(c.Entry, dwarf.AttrDeclaration) {
			continue
		}
		m, err := member(c.Entry)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Offset < members[j].Offset
	})
	return members, nil
}

func member(e *dwarf.Entry) (typedb.Member, error) {
	t, ok := typeAttr(e)
	if !ok {
		return typedb.Member{}, errors.InvalidData(errors.PhaseDecode, goffOf(e.Offset).String(), "member has no type")
	}
	off, err := memberOffset(e)
	if err != nil {
		return typedb.Member{}, err
	}
	align, err := optionalUnsigned(e, dwarf.AttrAlignment)
	if err != nil {
		return typedb.Member{}, err
	}
	return typedb.Member{
		Name:       nameAttr(e),
		Type:       t,
		Offset:     off,
		Alignment:  align,
		Artificial: flagAttr(e, dwarf.AttrArtificial),
	}, nil
}

func (d *decoder) variantPart(part *node) (typedb.VariantShape, error) {
	g := goffOf(part.Offset).String()

	var (
		disc    *typedb.Member
		discRef dwarf.Offset
		arms    []typedb.Arm
	)
	hasDisc := false
	if off, ok := part.Val(dwarf.AttrDiscr).(dwarf.Offset); ok {
		hasDisc = true
		discRef = off
	}

	for _, c := range part.children {
		switch c.Tag {
		case dwarf.TagMember:
			if hasDisc && c.Offset == discRef {
				m, err := member(c.Entry)
				if err != nil {
					return nil, err
				}
				disc = &m
			}
		case dwarf.TagVariant:
			arm, err := variantArm(c)
			if err != nil {
				return nil, err
			}
			arms = append(arms, arm)
		}
	}

	if !hasDisc {
		switch len(arms) {
		case 0:
			return typedb.ShapeZero{}, nil
		case 1:
			return typedb.ShapeOne{Variant: arms[0].Variant}, nil
		default:
			return nil, errors.Inconsistent(errors.PhaseDecode, g,
				fmt.Sprintf("%d variants without a discriminant", len(arms)))
		}
	}
	if disc == nil {
		return nil, errors.Inconsistent(errors.PhaseDecode, g,
			fmt.Sprintf("discriminant %s is not a member of the variant part", goffOf(discRef)))
	}

	shape, err := typedb.NewShapeMany(*disc, arms)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInconsistent).
			Goff(g).
			Cause(err).
			Detail("variant part").
			Build()
	}
	return shape, nil
}

func variantArm(v *node) (typedb.Arm, error) {
	var arm typedb.Arm
	value, ok, err := bitsAttr(v.Entry, dwarf.AttrDiscrValue)
	if err != nil {
		return arm, err
	}
	if ok {
		arm.Value = &value
	}
	for _, c := range v.children {
		if c.Tag != dwarf.TagMember {
			continue
		}
		m, err := member(c.Entry)
		if err != nil {
			return arm, err
		}
		arm.Variant = typedb.Variant{Member: m}
		return arm, nil
	}
	return arm, errors.InvalidData(errors.PhaseDecode, goffOf(v.Offset).String(), "variant has no payload member")
}

func (d *decoder) cenum(n *node) (typedb.Type, error) {
	size, _, err := unsignedAttr(n.Entry, dwarf.AttrByteSize)
	if err != nil {
		return nil, err
	}
	align, ok, err := unsignedAttr(n.Entry, dwarf.AttrAlignment)
	if err != nil {
		return nil, err
	}
	if !ok {
		align = size
	}

	byValue := make(map[uint64]int)
	var enumerators []typedb.Enumerator
	for _, c := range n.children {
		if c.Tag != dwarf.TagEnumerator {
			continue
		}
		v, _, err := bitsAttr(c.Entry, dwarf.AttrConstValue)
		if err != nil {
			return nil, err
		}
		e := typedb.Enumerator{Name: nameAttr(c.Entry), Value: v}
		// a repeated value replaces the earlier enumerator
		if i, dup := byValue[v]; dup {
			enumerators[i] = e
			continue
		}
		byValue[v] = len(enumerators)
		enumerators = append(enumerators, e)
	}
	sort.Slice(enumerators, func(i, j int) bool {
		return enumerators[i].Value < enumerators[j].Value
	})

	return &typedb.CEnum{
		Name:        nameAttr(n.Entry),
		ByteSize:    size,
		Alignment:   align,
		Enumerators: enumerators,
	}, nil
}

func (d *decoder) union(n *node) (typedb.Type, error) {
	members, err := memberList(n)
	if err != nil {
		return nil, err
	}
	return &typedb.Union{Name: nameAttr(n.Entry), Members: members}, nil
}

func (d *decoder) subroutine(n *node) typedb.Type {
	s := &typedb.Subroutine{}
	if ret, ok := typeAttr(n.Entry); ok {
		s.Return = &ret
	}
	for _, c := range n.children {
		if c.Tag != dwarf.TagFormalParameter {
			continue
		}
		if t, ok := typeAttr(c.Entry); ok {
			s.Params = append(s.Params, t)
		}
	}
	return s
}

// namePointers gives unnamed pointers a name derived from their pointee:
// "*" plus the pointee name, or "*void" when there is no pointee. Chains of
// unnamed pointers resolve from the innermost outwards.
func (d *decoder) namePointers() {
	names := make(map[typedb.Goff]string, len(d.entries))
	var pending []*typedb.Pointer
	for _, e := range d.entries {
		if name, ok := e.Type.DeclName(); ok {
			names[e.Goff] = name
			continue
		}
		p, ok := e.Type.(*typedb.Pointer)
		if !ok {
			continue
		}
		if !p.HasPointee {
			p.Name = "*void"
			names[e.Goff] = p.Name
			continue
		}
		pending = append(pending, p)
	}

	goffs := make(map[*typedb.Pointer]typedb.Goff, len(pending))
	for _, e := range d.entries {
		if p, ok := e.Type.(*typedb.Pointer); ok {
			goffs[p] = e.Goff
		}
	}

	for len(pending) > 0 {
		next := pending[:0]
		for _, p := range pending {
			if name, ok := names[p.Pointee]; ok {
				p.Name = "*" + name
				names[goffs[p]] = p.Name
				continue
			}
			next = append(next, p)
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
}

// readLines adds the line program of unit to the table. Failures only cost
// address lookups, so they are logged rather than returned.
func (d *decoder) readLines(unit *dwarf.Entry) {
	lr, err := d.data.LineReader(unit)
	if err != nil {
		Logger().Warn("unreadable line program", zap.String("goff", goffOf(unit.Offset).String()), zap.Error(err))
		return
	}
	if lr == nil {
		return
	}

	var (
		le      dwarf.LineEntry
		prev    dwarf.LineEntry
		started bool
	)
	for {
		if err := lr.Next(&le); err != nil {
			if err != io.EOF {
				Logger().Warn("truncated line program", zap.String("goff", goffOf(unit.Offset).String()), zap.Error(err))
			}
			return
		}
		if started && le.Address >= prev.Address {
			d.lines.Add(prev.Address, le.Address, lineRow(&prev))
		}
		if le.EndSequence {
			started = false
			continue
		}
		prev = le
		started = true
	}
}

func lineRow(le *dwarf.LineEntry) lines.Row {
	var row lines.Row
	if le.File != nil {
		row.File = le.File.Name
	}
	if l, err := safecast.Conv[uint64](le.Line); err == nil && l > 0 {
		row.Line = &l
	}
	if c, err := safecast.Conv[uint64](le.Column); err == nil && c > 0 {
		row.Column = &c
	}
	return row
}
