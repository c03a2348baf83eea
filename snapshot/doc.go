// Package snapshot persists loaded type snapshots so that reopening the same
// binary skips DWARF decoding.
//
// Files are msgpack documents named after the SHA-256 of the binary. A file
// written by a different format version, or one that fails to decode, is
// treated as a cache miss.
package snapshot
