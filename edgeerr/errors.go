// Package edgeerr defines the typed error values returned by every
// component of the signal-to-equity pipeline. A caller layer (UI, HTTP
// status mapping) can switch on Kind without parsing message strings.
package edgeerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure the way spec.md §7 enumerates them.
type Kind string

const (
	// KindContractViolation marks a bad input: empty series, non-monotone
	// index, missing required columns, out-of-range fractions, and so on.
	// Raised immediately and never silently substituted.
	KindContractViolation Kind = "contract_violation"
	// KindNumericEdgeCase marks a metric that is mathematically undefined
	// (zero variance, no trades, zero gross loss). These are handled
	// locally with a documented sentinel and do not propagate as errors.
	KindNumericEdgeCase Kind = "numeric_edge_case"
	// KindSearchFailure marks a single walk-forward trial that errored
	// internally; the search continues with a large negative score.
	KindSearchFailure Kind = "search_failure"
	// KindInternal marks an unexpected failure inside metric extraction or
	// trade reconstruction, surfaced as a degraded-but-valid result rather
	// than swallowed.
	KindInternal Kind = "internal"
)

// Error is the typed failure value returned by every package in this
// module. It names the offending field and value so the message is
// actionable without string parsing.
type Error struct {
	Kind           Kind
	Component      string
	Detail         string
	OffendingField string
	OffendingValue any
	Cause          error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s", e.Component, e.Kind, e.Detail)
	if e.OffendingField != "" {
		fmt.Fprintf(&b, " (field=%s value=%v)", e.OffendingField, e.OffendingValue)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Contract builds a KindContractViolation error naming the offending field.
func Contract(component, field string, value any, detail string) *Error {
	return &Error{
		Kind:           KindContractViolation,
		Component:      component,
		Detail:         detail,
		OffendingField: field,
		OffendingValue: value,
	}
}

// Wrap builds a KindInternal error carrying a lower-level cause.
func Wrap(component, detail string, cause error) *Error {
	return &Error{Kind: KindInternal, Component: component, Detail: detail, Cause: cause}
}

// SearchFailure builds a KindSearchFailure error for a single failed trial.
func SearchFailure(component, detail string, cause error) *Error {
	return &Error{Kind: KindSearchFailure, Component: component, Detail: detail, Cause: cause}
}

// Aggregate collects several contract violations into one error, mirroring
// how a config validation pass should name every offending field at once
// rather than stopping at the first.
type Aggregate struct {
	Component string
	Errors    []*Error
}

// Error implements the error interface.
func (a *Aggregate) Error() string {
	msgs := make([]string, len(a.Errors))
	for i, e := range a.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%s: %d validation error(s):\n  - %s", a.Component, len(a.Errors), strings.Join(msgs, "\n  - "))
}

// Add appends a violation. Safe to call with nil, which is a no-op so
// callers can write `agg.Add(checkX())` unconditionally.
func (a *Aggregate) Add(err *Error) {
	if err == nil {
		return
	}
	a.Errors = append(a.Errors, err)
}

// ErrOrNil returns the aggregate as an error if it holds any violations,
// or nil otherwise.
func (a *Aggregate) ErrOrNil() error {
	if len(a.Errors) == 0 {
		return nil
	}
	return a
}

// As is a thin re-export of errors.As so callers that only import edgeerr
// can type-switch without a second import.
func As(err error, target any) bool { return errors.As(err, target) }
