package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/tysh/typedb"
)

// Summary writes the structured description of t shown by the info command.
func Summary(w io.Writer, db typedb.Resolver, t typedb.Type, st Style) error {
	if st == nil {
		st = Plain{}
	}
	s := summarizer{db: db, st: st}
	s.write(t)
	_, err := io.WriteString(w, s.b.String())
	return err
}

type summarizer struct {
	db typedb.Resolver
	st Style
	b  strings.Builder
}

func (s *summarizer) line(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
	s.b.WriteByte('\n')
}

func (s *summarizer) named(g typedb.Goff) string {
	return NamedGoff(s.db, g, s.st)
}

func (s *summarizer) write(t typedb.Type) {
	switch typ := t.(type) {
	case *typedb.Base:
		s.line("base type")
		s.line("- encoding: %s", typ.Encoding)
		s.line("- byte size: %d", typ.ByteSize)
		if typ.Alignment != nil {
			s.line("- alignment: %d", *typ.Alignment)
		}

	case *typedb.Pointer:
		s.line("pointer type")
		if typ.HasPointee {
			s.line("- points to: %s", s.named(typ.Pointee))
		} else {
			s.line("- points to: nothing (untyped)")
		}

	case *typedb.Array:
		s.line("array type")
		s.line("- element type: %s", s.named(typ.Element))
		s.line("- lower bound: %d", typ.LowerBound)
		if typ.Count != nil {
			s.line("- count: %d", *typ.Count)
		} else {
			s.line("- size not given")
		}

	case *typedb.Struct:
		if typ.TupleLike {
			s.line("struct type (tuple-like)")
		} else {
			s.line("struct type")
		}
		s.line("- byte size: %d", typ.ByteSize)
		s.alignment(typ.Alignment)
		s.params("template type parameters", typ.TemplateParams)
		if len(typ.Members) == 0 {
			s.line("- no members")
			break
		}
		s.line("- members:")
		for _, m := range typ.Members {
			name := m.Name
			if name == "" {
				name = "<unnamed>"
			}
			s.line("  - %s: %s", name, s.named(m.Type))
			s.line("    - offset: %d bytes", m.Offset)
			if m.Alignment != nil {
				s.line("    - aligned: %d bytes", *m.Alignment)
			}
			if m.Artificial {
				s.line("    - artificial")
			}
		}

	case *typedb.Enum:
		s.line("enum type")
		s.line("- byte size: %d", typ.ByteSize)
		s.alignment(typ.Alignment)
		s.params("type parameters", typ.TemplateParams)
		s.shape(typ.VariantPart.Shape)

	case *typedb.CEnum:
		s.line("C-like enum type")
		s.line("- byte size: %d", typ.ByteSize)
		s.line("- alignment: %d", typ.Alignment)
		s.line("- %d values defined", len(typ.Enumerators))
		for _, e := range typ.Enumerators {
			s.line("  - %s = 0x%x", e.Name, e.Value)
		}

	case *typedb.Union:
		s.line("union type")

	case *typedb.Subroutine:
		s.line("subroutine type")
	}
}

func (s *summarizer) alignment(a *uint64) {
	if a != nil {
		s.line("- alignment: %d", *a)
	} else {
		s.line("- not aligned")
	}
}

func (s *summarizer) params(label string, params []typedb.TemplateParam) {
	if len(params) == 0 {
		return
	}
	s.line("- %s:", label)
	for _, p := range params {
		s.line("  - %s = %s", p.Name, s.named(p.Type))
	}
}

func (s *summarizer) shape(shape typedb.VariantShape) {
	switch sh := shape.(type) {
	case typedb.ShapeOne:
		m := sh.Variant.Member
		s.line("- single variant enum w/o discriminator")
		s.line("  - content type: %s", s.named(m.Type))
		s.line("  - offset: %d bytes", m.Offset)
		if m.Alignment != nil {
			s.line("  - aligned: %d bytes", *m.Alignment)
		}
		if !m.Artificial {
			s.line("  - payload member is not marked artificial")
		}

	case *typedb.ShapeMany:
		disc := sh.Discriminant
		if name, ok := s.db.NameFromGoff(disc.Type); ok {
			s.line("- %d variants discriminated by %s at offset %d", sh.VariantCount(), name, disc.Offset)
		} else {
			s.line("- %d variants discriminated by an anonymous type at offset %d", sh.VariantCount(), disc.Offset)
		}
		if !disc.Artificial {
			s.line("  - discriminant is not marked artificial")
		}
		for _, arm := range sh.Arms() {
			if arm.IsDefault() {
				s.line("- any other discriminator value")
			} else {
				s.line("- when discriminator == %d", *arm.Value)
			}
			m := arm.Variant.Member
			s.line("  - contains type: %s", s.named(m.Type))
			s.line("  - at offset: %d bytes", m.Offset)
			if m.Alignment != nil {
				s.line("  - aligned: %d bytes", *m.Alignment)
			}
		}

	default:
		s.line("- empty (uninhabited) enum")
	}
}
