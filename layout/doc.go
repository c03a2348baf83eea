// Package layout computes byte size and alignment of type entries.
//
// Sizes come from the debug information wherever it records them directly.
// Arrays are derived from their element type, and pointers use the target's
// pointer width without following the pointee, so ordinary reference cycles
// never recurse. A depth guard bounds any other recursion.
//
// Every result is optional: an unknown element, a missing count or an
// unsized kind yields false rather than a default value.
package layout
