package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SignalKind identifies the case of a FailureSignal.
type SignalKind uint8

const (
	// SignalUnavailable is raised by the coordinator before the request reaches
	// enough live replicas.
	SignalUnavailable SignalKind = iota + 1
	// SignalReadTimeout is raised when replicas did not answer a read in time.
	SignalReadTimeout
	// SignalWriteTimeout is raised when replicas did not acknowledge a write in time.
	SignalWriteTimeout
	// SignalNoHostAvailable means every candidate host has been exhausted.
	SignalNoHostAvailable
	// SignalTransport covers errors the classifier cannot map.
	SignalTransport
)

// String returns the lower-case name of the kind used in logs and metric labels.
func (k SignalKind) String() string {
	switch k {
	case SignalUnavailable:
		return "unavailable"
	case SignalReadTimeout:
		return "read_timeout"
	case SignalWriteTimeout:
		return "write_timeout"
	case SignalNoHostAvailable:
		return "no_host_available"
	case SignalTransport:
		return "transport"
	}

	return "unknown"
}

// FailureSignal is a classified failure reported while executing a statement.
//
// The set of implementations is closed: *UnavailableError, *ReadTimeoutError,
// *WriteTimeoutError, *NoHostAvailableError and *TransportError. Switch on the
// concrete type to handle every case.
type FailureSignal interface {
	error

	// Kind returns the case of the signal.
	Kind() SignalKind

	failureSignal()
}

var (
	_ FailureSignal = (*UnavailableError)(nil)
	_ FailureSignal = (*ReadTimeoutError)(nil)
	_ FailureSignal = (*WriteTimeoutError)(nil)
	_ FailureSignal = (*NoHostAvailableError)(nil)
	_ FailureSignal = (*TransportError)(nil)
)

// UnavailableError reports that not enough replicas were alive to attempt the request.
type UnavailableError struct {
	// Consistency is the level the request was sent at.
	Consistency Consistency

	// Required is the number of replicas the level needs.
	Required int

	// Alive is the number of replicas the coordinator knew to be alive.
	Alive int
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("strand: not enough replicas available for query at consistency %s (%d required but only %d alive)",
		e.Consistency, e.Required, e.Alive)
}

// Kind implements FailureSignal.
func (e *UnavailableError) Kind() SignalKind { return SignalUnavailable }

func (e *UnavailableError) failureSignal() {}

// ReadTimeoutError reports that a read did not get enough replica responses in time.
type ReadTimeoutError struct {
	Consistency Consistency
	Required    int
	Received    int

	// DataPresent reports whether the replica asked for data answered.
	DataPresent bool
}

// Error implements the error interface.
func (e *ReadTimeoutError) Error() string {
	return fmt.Sprintf("strand: timeout during read query at consistency %s (%d responses were required but only %d replica responded, data present: %t)",
		e.Consistency, e.Required, e.Received, e.DataPresent)
}

// Kind implements FailureSignal.
func (e *ReadTimeoutError) Kind() SignalKind { return SignalReadTimeout }

func (e *ReadTimeoutError) failureSignal() {}

// WriteTimeoutError reports that a write was not acknowledged by enough replicas in time.
type WriteTimeoutError struct {
	Consistency Consistency
	WriteType   WriteType
	Required    int
	Received    int
}

// Error implements the error interface.
func (e *WriteTimeoutError) Error() string {
	return fmt.Sprintf("strand: timeout during %s write query at consistency %s (%d replica were required but only %d acknowledged the write)",
		e.WriteType, e.Consistency, e.Required, e.Received)
}

// Kind implements FailureSignal.
func (e *WriteTimeoutError) Kind() SignalKind { return SignalWriteTimeout }

func (e *WriteTimeoutError) failureSignal() {}

// NoHostAvailableError reports that every candidate host was tried without success.
type NoHostAvailableError struct {
	// Errors maps host address to the last error observed on that host.
	Errors map[string]error
}

// Error implements the error interface.
func (e *NoHostAvailableError) Error() string {
	if len(e.Errors) == 0 {
		return "strand: no host available (no host was tried)"
	}

	addrs := make([]string, 0, len(e.Errors))
	for addr := range e.Errors {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	var b strings.Builder
	b.WriteString("strand: all hosts tried for query failed (tried: ")
	for i, addr := range addrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(addr)
		b.WriteString(": ")
		b.WriteString(e.Errors[addr].Error())
	}
	b.WriteString(")")

	return b.String()
}

// Kind implements FailureSignal.
func (e *NoHostAvailableError) Kind() SignalKind { return SignalNoHostAvailable }

func (e *NoHostAvailableError) failureSignal() {}

// TransportError wraps an error that could not be classified.
//
// Its semantics are unknown, so it is never offered to a retry policy.
type TransportError struct {
	// Host is the address of the host the request was sent to, if any.
	Host string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Host == "" {
		return "strand: transport error: " + causeText(e.Cause)
	}

	return "strand: transport error on " + e.Host + ": " + causeText(e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TransportError) Unwrap() error { return e.Cause }

// Kind implements FailureSignal.
func (e *TransportError) Kind() SignalKind { return SignalTransport }

func (e *TransportError) failureSignal() {}

// HostUnreachableError reports that a request never reached a coordinator.
//
// Transports return it for connection-level failures. It is not a FailureSignal:
// the executor moves on to the next candidate host without consulting the retry policy.
type HostUnreachableError struct {
	Host  string
	Cause error
}

// Error implements the error interface.
func (e *HostUnreachableError) Error() string {
	return "strand: host " + e.Host + " unreachable: " + causeText(e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *HostUnreachableError) Unwrap() error { return e.Cause }

func causeText(err error) string {
	if err == nil {
		return "unknown cause"
	}

	return err.Error()
}

// Classify maps an error to a FailureSignal.
//
// Errors that already are (or wrap) a FailureSignal are returned as such; anything
// else becomes a *TransportError.
//
// Parameters:
//   - err: The error returned by a transport; nil yields a TransportError with no cause
//
// Returns:
//   - FailureSignal: The classified signal
func Classify(err error) FailureSignal {
	var (
		unavailable  *UnavailableError
		readTimeout  *ReadTimeoutError
		writeTimeout *WriteTimeoutError
		noHost       *NoHostAvailableError
		transport    *TransportError
	)

	switch {
	case errors.As(err, &unavailable):
		return unavailable
	case errors.As(err, &readTimeout):
		return readTimeout
	case errors.As(err, &writeTimeout):
		return writeTimeout
	case errors.As(err, &noHost):
		return noHost
	case errors.As(err, &transport):
		return transport
	}

	return &TransportError{Cause: err}
}
