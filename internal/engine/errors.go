package engine

import "fmt"

// ValidationError is returned by CheckWasm when a contract violates a
// structural, capability or limit rule.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Error during static Wasm validation: %s", e.Msg)
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CompileError is returned when a module cannot be compiled even though it
// passed static validation.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("Error compiling Wasm: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
