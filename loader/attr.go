package loader

import (
	"debug/dwarf"
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/typedb"
)

const opPlusUconst = 0x23

func goffOf(off dwarf.Offset) typedb.Goff {
	return typedb.InfoOffset(uint64(off))
}

func nameAttr(e *dwarf.Entry) string {
	s, _ := e.Val(dwarf.AttrName).(string)
	return s
}

func typeAttr(e *dwarf.Entry) (typedb.Goff, bool) {
	off, ok := e.Val(dwarf.AttrType).(dwarf.Offset)
	if !ok {
		return typedb.Goff{}, false
	}
	return goffOf(off), true
}

func flagAttr(e *dwarf.Entry, attr dwarf.Attr) bool {
	b, _ := e.Val(attr).(bool)
	return b
}

// unsignedAttr reads a non-negative constant. A missing attribute reports
// false with a nil error.
func unsignedAttr(e *dwarf.Entry, attr dwarf.Attr) (uint64, bool, error) {
	switch v := e.Val(attr).(type) {
	case nil:
		return 0, false, nil
	case int64:
		u, err := safecast.Conv[uint64](v)
		if err != nil {
			return 0, false, errors.Overflow(errors.PhaseDecode, goffOf(e.Offset).String(), v, "uint64")
		}
		return u, true, nil
	case uint64:
		return v, true, nil
	default:
		return 0, false, errors.InvalidData(errors.PhaseDecode, goffOf(e.Offset).String(),
			fmt.Sprintf("%s has unexpected form %T", attr, v))
	}
}

// bitsAttr reads a constant as raw bits, so negative values keep their two's
// complement pattern. Used for enumerator and discriminant values.
func bitsAttr(e *dwarf.Entry, attr dwarf.Attr) (uint64, bool, error) {
	switch v := e.Val(attr).(type) {
	case nil:
		return 0, false, nil
	case int64:
		return uint64(v), true, nil
	case uint64:
		return v, true, nil
	case []byte:
		// data16 and block forms only carry wider values in practice
		if len(v) == 0 || len(v) > 8 {
			return 0, false, errors.Unsupported(errors.PhaseDecode,
				fmt.Sprintf("%d-byte %s at %s", len(v), attr, goffOf(e.Offset)))
		}
		var buf [8]byte
		copy(buf[:], v)
		return binary.LittleEndian.Uint64(buf[:]), true, nil
	default:
		return 0, false, errors.InvalidData(errors.PhaseDecode, goffOf(e.Offset).String(),
			fmt.Sprintf("%s has unexpected form %T", attr, v))
	}
}

func optionalUnsigned(e *dwarf.Entry, attr dwarf.Attr) (*uint64, error) {
	v, ok, err := unsignedAttr(e, attr)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// memberOffset reads DW_AT_data_member_location. Union members commonly omit
// it and sit at offset 0.
func memberOffset(e *dwarf.Entry) (uint64, error) {
	switch v := e.Val(dwarf.AttrDataMemberLoc).(type) {
	case nil:
		return 0, nil
	case []byte:
		off, err := plusUconst(v)
		if err != nil {
			return 0, errors.New(errors.PhaseDecode, errors.KindUnsupported).
				Goff(goffOf(e.Offset).String()).
				Cause(err).
				Detail("member location expression").
				Build()
		}
		return off, nil
	default:
		off, _, err := unsignedAttr(e, dwarf.AttrDataMemberLoc)
		return off, err
	}
}

// plusUconst evaluates a location expression consisting of a single
// DW_OP_plus_uconst operation.
func plusUconst(expr []byte) (uint64, error) {
	if len(expr) == 0 {
		return 0, fmt.Errorf("empty expression")
	}
	if expr[0] != opPlusUconst {
		return 0, fmt.Errorf("opcode 0x%02x is not DW_OP_plus_uconst", expr[0])
	}
	v, n := binary.Uvarint(expr[1:])
	if n <= 0 {
		return 0, fmt.Errorf("truncated operand")
	}
	if 1+n != len(expr) {
		return 0, fmt.Errorf("%d trailing bytes after DW_OP_plus_uconst", len(expr)-1-n)
	}
	return v, nil
}

// isTupleName reports whether name is a positional field name like __0.
func isTupleName(name string) bool {
	if len(name) < 3 || name[0] != '_' || name[1] != '_' {
		return false
	}
	for _, c := range name[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
