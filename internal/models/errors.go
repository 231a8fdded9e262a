package models

import "fmt"

// ProviderError wraps a failure from an external data provider. Recoverable:
// the peer source chain records it and advances to the next source.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NormalizationError reports a provider payload that could not be mapped
// onto the canonical metric shape. Treated as a provider failure for that
// chain step.
type NormalizationError struct {
	Provider string
	Reason   string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s payload: %s", e.Provider, e.Reason)
}

// ProfileUnavailableError means the target company's profile could not be
// resolved from any provider. The only fatal error in an analysis run.
type ProfileUnavailableError struct {
	Ticker string
	Err    error
}

func (e *ProfileUnavailableError) Error() string {
	return fmt.Sprintf("profile unavailable for %s: %v", e.Ticker, e.Err)
}

func (e *ProfileUnavailableError) Unwrap() error {
	return e.Err
}

// InsufficientDataError means a score component lacked the inputs it needs.
// The component is excluded with a note; the run continues.
type InsufficientDataError struct {
	Component string
	Reason    string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Component, e.Reason)
}
