package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve Phase = "resolve" // trait class resolution
	PhaseInspect Phase = "inspect" // foreign value description
	PhaseIterate Phase = "iterate" // enumeration
	PhaseOracle  Phase = "oracle"  // capability queries against the foreign runtime
	PhaseBridge  Phase = "bridge"  // proxy wrapping and method dispatch
	PhaseLoad    Phase = "load"    // foreign module loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownTrait  Kind = "unknown_trait"
	KindRegistration  Kind = "registration"
	KindNotIterable   Kind = "not_iterable"
	KindExhausted     Kind = "exhausted"
	KindTypeMismatch  Kind = "type_mismatch"
	KindNotFound      Kind = "not_found"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindUnsupported   Kind = "unsupported"
	KindOracleFailure Kind = "oracle_failure"
	KindInvalidInput  Kind = "invalid_input"
	KindNoMethod      Kind = "no_method"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Trait  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Trait != "" {
		b.WriteString(": trait ")
		b.WriteString(e.Trait)
	}

	if e.Detail != "" {
		if e.Trait != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// IsConfiguration reports whether the error is a configuration error:
// an unknown trait, a bad trait registration, or enumeration requested
// on a value without that capability.
func (e *Error) IsConfiguration() bool {
	switch e.Kind {
	case KindUnknownTrait, KindRegistration, KindNotIterable:
		return true
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

// Path sets the access path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Trait sets the trait name
func (b *Builder) Trait(name string) *Builder {
	b.err.Trait = name
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

// UnknownTrait creates an error for a trait name with no registered definition
func UnknownTrait(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnknownTrait,
		Trait:  name,
		Detail: "no capability definition registered",
	}
}

// Registration creates a trait registration error
func Registration(name, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindRegistration,
		Trait:  name,
		Detail: detail,
	}
}

// NotIterable creates an error for enumeration requested on a value
// that cannot be enumerated
func NotIterable(value any) *Error {
	return &Error{
		Phase:  PhaseIterate,
		Kind:   KindNotIterable,
		Detail: fmt.Sprintf("%T does not support element-wise enumeration", value),
		Value:  value,
	}
}

// Exhausted creates an end-of-sequence error
func Exhausted() *Error {
	return &Error{
		Phase:  PhaseIterate,
		Kind:   KindExhausted,
		Detail: "no more elements",
	}
}

// TypeMismatch creates a type mismatch error for an oracle accessor
func TypeMismatch(phase Phase, path []string, expected string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %T", expected, value),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NoMethod creates an error for a proxy call the class does not answer
func NoMethod(class, method string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindNoMethod,
		Detail: fmt.Sprintf("undefined method %q for %s", method, class),
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

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Oracle wraps a failure reported by the foreign runtime
func Oracle(phase Phase, path []string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOracleFailure,
		Path:   path,
		Detail: "capability query failed",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
