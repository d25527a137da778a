// Package errors provides structured error types for the polyglot bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: access path, trait name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindUnknownTrait).
//		Trait("Bogus").
//		Detail("no capability definition registered").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownTrait("Bogus")
//	err := errors.NotIterable(value)
//
// Configuration errors (unknown trait, bad registration, enumeration on a
// value without that capability) report true from IsConfiguration.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
