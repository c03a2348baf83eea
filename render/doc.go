// Package render turns type entries into text.
//
// Definition reconstructs a pseudo-source declaration, including the inline
// variant bodies of sum types. Summary prints the structured field-by-field
// description used by the info command. NamedGoff formats an entry reference
// as its name followed by its address.
//
// Rendering favors producing output: a variant payload that is not a struct
// becomes an inline placeholder and member types that do not resolve print
// their address. The one hard failure is an array whose element type is
// missing from the snapshot.
package render
