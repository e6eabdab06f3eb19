package models

import "fmt"

// ProviderError signals that a single provider fetch failed. It is non-fatal:
// the scheduler records the provider as degraded and the cycle continues.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider '%s' failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StageError signals that a pipeline stage itself failed. It is fatal for the
// current cycle only: the scheduler records it and returns it to the caller,
// while the recurring timer keeps the schedule alive.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage '%s' failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ValidationError signals caller-supplied invalid configuration. It is
// surfaced synchronously at the call site.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
