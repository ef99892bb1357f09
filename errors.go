package seam

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeAmbiguous
	ErrCodeMultipleRequiredConstructors
	ErrCodeUnsupportedPoint
	ErrCodeAssignmentFailed
	ErrCodeFactoryFailed
	ErrCodeDuplicateCandidate
	ErrCodeNoConstructor
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                      "UNKNOWN",
	ErrCodeNotFound:                     "NOT_FOUND",
	ErrCodeAmbiguous:                    "AMBIGUOUS",
	ErrCodeMultipleRequiredConstructors: "MULTIPLE_REQUIRED_CONSTRUCTORS",
	ErrCodeUnsupportedPoint:             "UNSUPPORTED_POINT",
	ErrCodeAssignmentFailed:             "ASSIGNMENT_FAILED",
	ErrCodeFactoryFailed:                "FACTORY_FAILED",
	ErrCodeDuplicateCandidate:           "DUPLICATE_CANDIDATE",
	ErrCodeNoConstructor:                "NO_CONSTRUCTOR",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error attributes a resolution failure to the component type and the
// injection point (field, setter, or constructor parameter) it occurred at.
type Error struct {
	Code      ErrorCode
	Message   string
	Component string
	Point     string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Component != "" {
		b.WriteString(fmt.Sprintf(" component=%q", e.Component))
	}
	if e.Point != "" {
		b.WriteString(fmt.Sprintf(" point=%q", e.Point))
	}
	if e.Component != "" || e.Point != "" {
		b.WriteString(":")
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

func (e *Error) WithPoint(point string) *Error {
	e.Point = point
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errNotFound(requirement string) *Error {
	return newError(
		ErrCodeNotFound,
		fmt.Sprintf("no eligible candidate for required type %s", requirement),
		nil,
	)
}

func errAmbiguous(requirement string, names []string) *Error {
	return newError(
		ErrCodeAmbiguous,
		fmt.Sprintf("expected single matching candidate for %s, found %d: %s",
			requirement, len(names), strings.Join(names, ", ")),
		nil,
	)
}

func errMultipleRequiredConstructors(component string, count int) *Error {
	return newError(
		ErrCodeMultipleRequiredConstructors,
		fmt.Sprintf("%d constructors marked required, at most one is allowed", count),
		nil,
	).WithComponent(component)
}

func errUnsupportedPoint(component, point, reason string) *Error {
	return newError(
		ErrCodeUnsupportedPoint,
		reason,
		nil,
	).WithComponent(component).WithPoint(point)
}

func errAssignmentFailed(got, want string) *Error {
	return newError(
		ErrCodeAssignmentFailed,
		fmt.Sprintf("cannot assign value of type %s to %s", got, want),
		nil,
	)
}

func errFactoryFailed(candidate string, cause error) *Error {
	return &Error{
		Code:    ErrCodeFactoryFailed,
		Message: fmt.Sprintf("factory for candidate %q returned error", candidate),
		Cause:   cause,
	}
}

func errDuplicateCandidate(name string) *Error {
	return newError(
		ErrCodeDuplicateCandidate,
		fmt.Sprintf("candidate already registered under name %q", name),
		nil,
	)
}

func errNoConstructor(component string) *Error {
	return newError(
		ErrCodeNoConstructor,
		"no constructor candidate is satisfiable",
		nil,
	).WithComponent(component)
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

func IsAmbiguous(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAmbiguous
}

func IsMultipleRequiredConstructors(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeMultipleRequiredConstructors
}

func IsUnsupportedPoint(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnsupportedPoint
}

func IsAssignmentFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAssignmentFailed
}

func IsFactoryFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeFactoryFailed
}

func IsDuplicateCandidate(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDuplicateCandidate
}

func IsNoConstructor(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNoConstructor
}
