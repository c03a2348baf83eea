// Package loader builds a typedb snapshot from a program binary.
//
// # Formats
//
// ELF, Mach-O (thin and fat), PE and WebAssembly containers are recognized
// by their magic bytes. Native containers are opened with the standard
// debug/* packages. WebAssembly modules are compiled with wazero so their
// .debug_* custom sections can be handed to debug/dwarf.
//
// # Decoding
//
// Every unit's DIE tree is walked and each type-bearing entry becomes one
// typedb entry keyed by its .debug_info offset. Types nested in namespaces,
// subprograms or other types are found as well. Entries whose attributes
// cannot be mapped are logged and skipped rather than failing the load.
//
// The line programs of all units are flattened into a lines.Table.
package loader
