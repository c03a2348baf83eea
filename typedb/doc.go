// Package typedb holds the decoded type graph of one binary.
//
// A Types value is an immutable snapshot built once by the loader. Entries are
// addressed by Goff, a section-tagged offset into the DWARF debug information,
// and every cross reference between entries is a Goff rather than a pointer.
//
// # Key Types
//
//   - Goff: stable address of an entry, with a canonical text form
//   - Type: closed union of Base, Pointer, Array, Struct, Enum, CEnum, Union and Subroutine
//   - VariantShape: how a sum type encodes its variants (Zero, One or Many)
//   - Types: the snapshot with name and goff lookups and the line table
//
// Lookups never fail hard: a missing goff or name is reported as absent and
// callers decide how to present it.
package typedb
