package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad   Phase = "load"   // reading and recognizing the binary
	PhaseDecode Phase = "decode" // DWARF to type graph
	PhaseParse  Phase = "parse"  // user input parsing
	PhaseQuery  Phase = "query"  // snapshot lookups
	PhaseRender Phase = "render" // definition and summary output
	PhaseConfig Phase = "config" // configuration file
	PhaseCache  Phase = "cache"  // snapshot cache
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindUnsupported  Kind = "unsupported"
	KindOverflow     Kind = "overflow"
	KindDuplicate    Kind = "duplicate"
	KindInconsistent Kind = "inconsistent"
)

// Error is the structured error type used throughout tysh
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Goff   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Goff != "" {
		b.WriteString(" at ")
		b.WriteString(e.Goff)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Goff sets the textual address of the entry the error is about
func (b *Builder) Goff(goff string) *Builder {
	b.err.Goff = goff
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Message returns the detail alone, which is what the shell shows to users.
// Falls back to the full error text when no detail was recorded.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return err.Error()
}

// Convenience constructors for common error patterns

// NotFound creates a not-found error for a lookup that resolved nothing
func NotFound(phase Phase, what, ref string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Goff:   ref,
		Detail: fmt.Sprintf("%s %s not found", what, ref),
	}
}

// InvalidInput creates an invalid input error echoing the offending text
func InvalidInput(phase Phase, input, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Value:  input,
	}
}

// InvalidData creates an invalid data error for an ill-formed entry
func InvalidData(phase Phase, goff, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Goff:   goff,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, goff string, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Goff:   goff,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// Duplicate creates an error for an entry registered twice
func Duplicate(phase Phase, goff string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Goff:   goff,
		Detail: "entry defined more than once",
	}
}

// Inconsistent creates an error for data that contradicts an invariant
func Inconsistent(phase Phase, goff, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInconsistent,
		Goff:   goff,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a binary loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
