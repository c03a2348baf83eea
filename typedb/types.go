package typedb

// Type is one decoded type entry. The set of implementations is closed:
// *Base, *Pointer, *Array, *Struct, *Enum, *CEnum, *Union and *Subroutine.
type Type interface {
	Kind() Kind
	// DeclName returns the declared name, or false for anonymous entries.
	DeclName() (string, bool)
	isType()
}

// Base is a primitive type.
type Base struct {
	Alignment *uint64
	Name      string
	ByteSize  uint64
	Encoding  Encoding
}

// Pointer is a pointer or reference type. Name already describes the
// pointee, e.g. "&str" or "*const u8".
type Pointer struct {
	Name       string
	Pointee    Goff
	HasPointee bool
}

// Array is a fixed or unsized array. A nil Count means the length is unknown.
type Array struct {
	Count      *uint64
	Element    Goff
	LowerBound uint64
}

// TemplateParam is a generic type parameter bound to a concrete type.
type TemplateParam struct {
	Name string
	Type Goff
}

// Member is a field of an aggregate. An empty Name marks an anonymous or
// positional member.
type Member struct {
	Alignment  *uint64
	Name       string
	Type       Goff
	Offset     uint64
	Artificial bool
}

// Struct is a product type. Members are ordered by byte offset; repeated
// offsets only occur for overlapping storage.
type Struct struct {
	Alignment      *uint64
	Name           string
	TemplateParams []TemplateParam
	Members        []Member
	ByteSize       uint64
	TupleLike      bool
}

// Enum is a sum type lowered into a discriminant plus variant payloads.
type Enum struct {
	Alignment      *uint64
	VariantPart    VariantPart
	Name           string
	TemplateParams []TemplateParam
	ByteSize       uint64
}

// Enumerator is one named constant of a C-like enum.
type Enumerator struct {
	Name  string
	Value uint64
}

// CEnum is a C-style enumeration. Enumerators are ordered by value.
type CEnum struct {
	Name        string
	Enumerators []Enumerator
	ByteSize    uint64
	Alignment   uint64
}

// Union is an untagged union.
type Union struct {
	Name    string
	Members []Member
}

// Subroutine is a callable type signature.
type Subroutine struct {
	Return *Goff
	Params []Goff
}

func (*Base) Kind() Kind { return KindBase }
func (*Pointer) Kind() Kind { return KindPointer }
func (*Array) Kind() Kind { return KindArray }
func (*Struct) Kind() Kind { return KindStruct }
func (*Enum) Kind() Kind { return KindEnum }
func (*CEnum) Kind() Kind { return KindCEnum }
func (*Union) Kind() Kind { return KindUnion }
func (*Subroutine) Kind() Kind { return KindSubroutine }

func (t *Base) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (t *Pointer) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (*Array) DeclName() (string, bool) { return "", false }
func (t *Struct) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (t *Enum) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (t *CEnum) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (t *Union) DeclName() (string, bool) { return t.Name, t.Name != "" }
func (*Subroutine) DeclName() (string, bool) { return "", false }

func (*Base) isType() {}
func (*Pointer) isType() {}
func (*Array) isType() {}
func (*Struct) isType() {}
func (*Enum) isType() {}
func (*CEnum) isType() {}
func (*Union) isType() {}
func (*Subroutine) isType() {}
