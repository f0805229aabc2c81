package route

import (
	"fmt"
	"net/http"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	KindValue Kind = iota
	KindNotFound
	KindSignal
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindNotFound:
		return "not_found"
	case KindSignal:
		return "signal"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DomainSignal is a named business-rule outcome, distinct from validation
// failure. The dispatch channel maps it through a handler registered for
// its name.
type DomainSignal struct {
	Name   string
	Reason string
	Data   map[string]any
}

func (s DomainSignal) Error() string {
	if s.Reason == "" {
		return "domain signal " + s.Name
	}
	return fmt.Sprintf("domain signal %s: %s", s.Name, s.Reason)
}

// Missing identifies what a NotFound result could not find.
type Missing struct {
	Resource string
	Key      any
}

// Result is what a handler returns: a value, a not-found, a domain signal,
// or an internal failure.
type Result struct {
	kind    Kind
	status  int
	value   any
	missing Missing
	signal  DomainSignal
	err     error
}

// OK returns a value with the route's success status.
func OK(v any) Result {
	return Result{kind: KindValue, value: v}
}

// Created returns a value with status 201.
func Created(v any) Result {
	return WithStatus(http.StatusCreated, v)
}

// WithStatus returns a value with an explicit status.
func WithStatus(status int, v any) Result {
	return Result{kind: KindValue, status: status, value: v}
}

// NotFound reports that the resource identified by key does not exist.
func NotFound(resource string, key any) Result {
	return Result{kind: KindNotFound, missing: Missing{Resource: resource, Key: key}}
}

// Signal returns a domain signal.
func Signal(sig DomainSignal) Result {
	return Result{kind: KindSignal, signal: sig}
}

// Fail returns an internal failure. The cause is logged, never sent.
func Fail(err error) Result {
	return Result{kind: KindFailure, err: err}
}

// Kind returns the variant held.
func (r Result) Kind() Kind { return r.kind }

// Status returns the explicit status of a value result, or 0.
func (r Result) Status() int { return r.status }

// Value returns the value of a value result.
func (r Result) Value() any { return r.value }

// Missing returns what a NotFound result could not find.
func (r Result) Missing() Missing { return r.missing }

// DomainSignal returns the signal of a signal result.
func (r Result) DomainSignal() DomainSignal { return r.signal }

// Err returns the cause of a failure.
func (r Result) Err() error { return r.err }
