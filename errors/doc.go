// Package errors provides structured error types for tysh.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending goff or input text, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Goff("<.debug_info+0x0000002a>").
//		Detail("variant part has %d default arms", 2).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidInput(errors.PhaseParse, "0xzz", "can't parse zz as hex")
//	err := errors.NotFound(errors.PhaseRender, "element type", "<.debug_info+0x00000010>")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
