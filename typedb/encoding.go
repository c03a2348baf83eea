package typedb

import "fmt"

// Encoding is a base type encoding. Values are the DWARF DW_ATE codes, so
// encodings this package does not name are carried through unchanged.
type Encoding uint8

const (
	EncodingBoolean      Encoding = 0x02
	EncodingFloat        Encoding = 0x04
	EncodingSigned       Encoding = 0x05
	EncodingSignedChar   Encoding = 0x06
	EncodingUnsigned     Encoding = 0x07
	EncodingUnsignedChar Encoding = 0x08
)

func (e Encoding) String() string {
	switch e {
	case EncodingBoolean:
		return "Boolean"
	case EncodingFloat:
		return "Float"
	case EncodingSigned:
		return "Signed"
	case EncodingSignedChar:
		return "SignedChar"
	case EncodingUnsigned:
		return "Unsigned"
	case EncodingUnsignedChar:
		return "UnsignedChar"
	default:
		return fmt.Sprintf("Other(0x%02x)", uint8(e))
	}
}
