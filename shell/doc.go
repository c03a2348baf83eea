// Package shell implements the tysh command language over a loaded type
// snapshot.
//
// # Commands
//
// The command table is fixed when the session starts. Each line is trimmed
// and split at the first whitespace into a command name and its argument.
// Type queries accept either a name, which may match several entries, or a
// goff reference such as <.debug_info+0x0000002a>:
//
//	list [substr]    print every type, optionally filtered by name
//	info TYPE        structured summary
//	def TYPE         pseudo-source definition
//	sizeof TYPE      byte size
//	alignof TYPE     byte alignment
//	addr2line ADDR   source position of an address (0x hex or decimal)
//	help             command list
//	exit             leave the shell
//
// # Loops
//
// RunLines reads commands from any reader and is used for pipes and for
// terminals with the UI disabled. RunTUI runs the same session inside a
// bubbletea program with line editing and history.
package shell
