package typedb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/tysh/errors"
)

// Section identifies which debug section a Goff points into.
type Section uint8

const (
	SectionInfo Section = iota
	SectionTypes
)

var sectionNames = [...]string{
	SectionInfo:  ".debug_info",
	SectionTypes: ".debug_types",
}

func (s Section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "unknown"
}

// Goff is the global offset of a type entry.
type Goff struct {
	Section Section
	Offset  uint64
}

// InfoOffset returns a Goff into .debug_info.
func InfoOffset(off uint64) Goff {
	return Goff{Section: SectionInfo, Offset: off}
}

// TypesOffset returns a Goff into .debug_types.
func TypesOffset(off uint64) Goff {
	return Goff{Section: SectionTypes, Offset: off}
}

// String renders the canonical text form, e.g. <.debug_info+0x0000002a>.
func (g Goff) String() string {
	return fmt.Sprintf("<%s+0x%08x>", g.Section, g.Offset)
}

const (
	goffPrefix = "<.debug_"
	infoTag    = "info+0x"
	typesTag   = "types+0x"
)

// LooksLikeGoff reports whether s has the shape of a goff reference and
// should be parsed with ParseGoff rather than treated as a type name.
func LooksLikeGoff(s string) bool {
	return strings.HasPrefix(s, goffPrefix) && strings.HasSuffix(s, ">")
}

// ParseGoff parses the text form produced by Goff.String.
func ParseGoff(s string) (Goff, error) {
	if !LooksLikeGoff(s) {
		return Goff{}, errors.InvalidInput(errors.PhaseParse, s,
			fmt.Sprintf("bad offset reference: %s", s))
	}
	rest := s[len(goffPrefix) : len(s)-1]

	var section Section
	var num string
	switch {
	case strings.HasPrefix(rest, infoTag):
		section, num = SectionInfo, rest[len(infoTag):]
	case strings.HasPrefix(rest, typesTag):
		section, num = SectionTypes, rest[len(typesTag):]
	default:
		return Goff{}, errors.InvalidInput(errors.PhaseParse, s,
			fmt.Sprintf("bad offset reference: %s", s))
	}

	off, err := strconv.ParseUint(num, 16, 64)
	if err != nil {
		return Goff{}, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Value(num).
			Cause(err).
			Detail("can't parse %s as hex", num).
			Build()
	}
	return Goff{Section: section, Offset: off}, nil
}
