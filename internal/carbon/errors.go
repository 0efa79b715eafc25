package carbon

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	// KindInputValidation marks a missing or mistyped row field.
	KindInputValidation ErrorKind = iota + 1
	// KindUnsupportedValue marks an unknown vendor, instance type or architecture,
	// or an interpolation mode the vendor's data cannot back.
	KindUnsupportedValue
	// KindConfigValidation marks a strategy configured without its required context.
	KindConfigValidation
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrInputValidation  = errors.New("input validation failed")
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrConfigValidation = errors.New("config validation failed")
)

// String returns the kind name used in logs and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindInputValidation:
		return "InputValidation"
	case KindUnsupportedValue:
		return "UnsupportedValue"
	case KindConfigValidation:
		return "ConfigValidation"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInputValidation:
		return ErrInputValidation
	case KindUnsupportedValue:
		return ErrUnsupportedValue
	case KindConfigValidation:
		return ErrConfigValidation
	default:
		return nil
	}
}

// Error is the typed error returned by every engine component.
type Error struct {
	Kind ErrorKind

	// Param names the offending parameter (e.g. "cloud/instance-type").
	Param string

	// Value is the offending value, when there is one.
	Value string

	// Msg is the human-readable reason.
	Msg string

	// Supported enumerates the accepted values, if the set is known.
	Supported []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	if e.Param != "" {
		b.WriteString(e.Param)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %q)", e.Value)
	}
	if len(e.Supported) > 0 {
		fmt.Fprintf(&b, "; supported: %s", strings.Join(e.Supported, ", "))
	}
	return b.String()
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// GRPCStatus maps the error kind onto a gRPC status code.
func (e *Error) GRPCStatus() *status.Status {
	code := codes.Unknown
	switch e.Kind {
	case KindInputValidation:
		code = codes.InvalidArgument
	case KindUnsupportedValue:
		code = codes.NotFound
	case KindConfigValidation:
		code = codes.FailedPrecondition
	}
	return status.New(code, e.Error())
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// InputValidationError reports a missing or malformed row field.
func InputValidationError(param, msg string) *Error {
	return &Error{Kind: KindInputValidation, Param: param, Msg: msg}
}

// UnsupportedValueError reports a value outside the supported set.
func UnsupportedValueError(param, value, msg string, supported []string) *Error {
	return &Error{Kind: KindUnsupportedValue, Param: param, Value: value, Msg: msg, Supported: supported}
}

// ConfigValidationError reports a missing or invalid static parameter.
func ConfigValidationError(param, msg string) *Error {
	return &Error{Kind: KindConfigValidation, Param: param, Msg: msg}
}
