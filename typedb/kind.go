package typedb

// Kind discriminates the Type variants.
type Kind uint8

const (
	KindBase Kind = iota
	KindPointer
	KindArray
	KindStruct
	KindEnum
	KindCEnum
	KindUnion
	KindSubroutine
)

var kindNames = [...]string{
	KindBase:       "base",
	KindPointer:    "pointer",
	KindArray:      "array",
	KindStruct:     "struct",
	KindEnum:       "enum",
	KindCEnum:      "c-enum",
	KindUnion:      "union",
	KindSubroutine: "subroutine",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
