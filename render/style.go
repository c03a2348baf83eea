package render

import "github.com/wippyai/tysh/typedb"

// Style decorates the parts of an entry reference.
type Style interface {
	Name(s string) string
	Addr(s string) string
}

// Plain is a Style that adds no decoration.
type Plain struct{}

func (Plain) Name(s string) string { return s }
func (Plain) Addr(s string) string { return s }

// AnonymousName is shown for entries without a declared name.
const AnonymousName = "<anonymous type>"

// NamedGoff renders "Name <.debug_info+0x...>" for the entry at g.
func NamedGoff(db typedb.Resolver, g typedb.Goff, st Style) string {
	if st == nil {
		st = Plain{}
	}
	name, ok := db.NameFromGoff(g)
	if !ok {
		name = AnonymousName
	}
	return st.Name(name) + " " + st.Addr(g.String())
}

// typeName is the name used for a referenced type inside a definition.
func typeName(db typedb.Resolver, g typedb.Goff) string {
	if name, ok := db.NameFromGoff(g); ok {
		return name
	}
	return g.String()
}
