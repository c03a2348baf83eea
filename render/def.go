package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/typedb"
)

// anonMember stands in for members without a name.
const anonMember = "ANON"

// unexpectedPayload replaces a variant payload that is not a struct.
const unexpectedPayload = "(unexpected payload type)"

type baseKey struct {
	enc  typedb.Encoding
	size uint64
}

var baseNames = map[baseKey]string{
	{typedb.EncodingUnsigned, 1}:     "u8",
	{typedb.EncodingUnsigned, 2}:     "u16",
	{typedb.EncodingUnsigned, 4}:     "u32",
	{typedb.EncodingUnsigned, 8}:     "u64",
	{typedb.EncodingUnsigned, 16}:    "u128",
	{typedb.EncodingSigned, 1}:       "i8",
	{typedb.EncodingSigned, 2}:       "i16",
	{typedb.EncodingSigned, 4}:       "i32",
	{typedb.EncodingSigned, 8}:       "i64",
	{typedb.EncodingSigned, 16}:      "i128",
	{typedb.EncodingFloat, 4}:        "f32",
	{typedb.EncodingFloat, 8}:        "f64",
	{typedb.EncodingBoolean, 1}:      "bool",
	{typedb.EncodingUnsignedChar, 4}: "char",
	{typedb.EncodingUnsignedChar, 1}: "c_uchar",
	{typedb.EncodingSignedChar, 1}:   "c_schar",
}

// BaseName maps a primitive's encoding and size to its canonical name.
// Pairs outside the table render as Unhandled<Encoding><size>.
func BaseName(b *typedb.Base) string {
	if b.ByteSize == 0 {
		return "()"
	}
	if name, ok := baseNames[baseKey{b.Encoding, b.ByteSize}]; ok {
		return name
	}
	return fmt.Sprintf("Unhandled%s%d", b.Encoding, b.ByteSize)
}

// Definition writes the pseudo-source declaration of t. Nothing is written
// when an error is returned.
func Definition(w io.Writer, db typedb.Resolver, t typedb.Type) error {
	var b strings.Builder
	if err := writeDefinition(&b, db, t); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDefinition(b *strings.Builder, db typedb.Resolver, t typedb.Type) error {
	switch typ := t.(type) {
	case *typedb.Base:
		b.WriteString("type _ = ")
		b.WriteString(BaseName(typ))
		b.WriteString(";\n")

	case *typedb.Pointer:
		b.WriteString(typ.Name)
		b.WriteByte('\n')

	case *typedb.Array:
		name, ok := db.NameFromGoff(typ.Element)
		if !ok {
			return errors.NotFound(errors.PhaseRender, "element type", typ.Element.String())
		}
		if typ.Count != nil {
			fmt.Fprintf(b, "[%s; %d]\n", name, *typ.Count)
		} else {
			fmt.Fprintf(b, "[%s]\n", name)
		}

	case *typedb.Struct:
		b.WriteString("struct ")
		b.WriteString(typ.Name)
		writeParams(b, typ.TemplateParams)
		switch {
		case len(typ.Members) == 0:
			b.WriteString(";\n")
		case typ.TupleLike:
			b.WriteString("(\n")
			for _, m := range typ.Members {
				fmt.Fprintf(b, "    %s,\n", typeName(db, m.Type))
			}
			b.WriteString(");\n")
		default:
			b.WriteString(" {\n")
			for _, m := range typ.Members {
				fmt.Fprintf(b, "    %s: %s,\n", memberName(m), typeName(db, m.Type))
			}
			b.WriteString("}\n")
		}

	case *typedb.Enum:
		b.WriteString("enum ")
		b.WriteString(typ.Name)
		writeParams(b, typ.TemplateParams)
		b.WriteString(" {\n")
		switch shape := typ.VariantPart.Shape.(type) {
		case typedb.ShapeOne:
			writeVariant(b, db, shape.Variant)
		case *typedb.ShapeMany:
			for _, arm := range shape.Arms() {
				writeVariant(b, db, arm.Variant)
			}
		}
		b.WriteString("}\n")

	case *typedb.CEnum:
		fmt.Fprintf(b, "enum %s {\n", typ.Name)
		for _, e := range typ.Enumerators {
			fmt.Fprintf(b, "    %s = 0x%x,\n", e.Name, e.Value)
		}
		b.WriteString("}\n")

	case *typedb.Subroutine:
		b.WriteString("fn(\n")
		for _, p := range typ.Params {
			fmt.Fprintf(b, "    %s,\n", typeName(db, p))
		}
		if typ.Return != nil {
			fmt.Fprintf(b, ") -> %s {\n", typeName(db, *typ.Return))
		} else {
			b.WriteString(") {\n")
		}
		b.WriteString("    // subroutine type: this describes a signature, not a function body\n")
		b.WriteString("    unimplemented!();\n")
		b.WriteString("}\n")

	case *typedb.Union:
		// unions render as a stub; member layout is not rendered
		fmt.Fprintf(b, "union %s { /* layout not rendered */ }\n", typ.Name)
	}
	return nil
}

func writeParams(b *strings.Builder, params []typedb.TemplateParam) {
	if len(params) == 0 {
		return
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	b.WriteByte('<')
	b.WriteString(strings.Join(names, ","))
	b.WriteByte('>')
}

// writeVariant renders one variant line with its payload struct inlined.
func writeVariant(b *strings.Builder, db typedb.Resolver, v typedb.Variant) {
	b.WriteString("    ")
	b.WriteString(memberName(v.Member))

	payload, ok := db.TypeFromGoff(v.Member.Type)
	s, isStruct := payload.(*typedb.Struct)
	switch {
	case !ok || !isStruct:
		b.WriteString(unexpectedPayload)
	case len(s.Members) == 0:
	case s.TupleLike:
		b.WriteString("(\n")
		for _, m := range s.Members {
			fmt.Fprintf(b, "        %s,\n", typeName(db, m.Type))
		}
		b.WriteString("    )")
	default:
		b.WriteString(" {\n")
		for _, m := range s.Members {
			fmt.Fprintf(b, "        %s: %s,\n", memberName(m), typeName(db, m.Type))
		}
		b.WriteString("    }")
	}
	b.WriteString(",\n")
}

func memberName(m typedb.Member) string {
	if m.Name == "" {
		return anonMember
	}
	return m.Name
}
