// Package errs defines the failure taxonomy shared by the gateways, the query cache
// and the mutation coordinators.
//
// Every failure that crosses a component boundary is a *goerrors.Error carrying one of
// the text codes below, so callers can branch on the kind without string matching and
// the presentation layer can always show a human readable message.
package errs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Kind identifies a failure class. Its string value is the text code attached to the error.
type Kind string

const (
	KindInvalidCredentials  Kind = "INVALID_CREDENTIALS"
	KindUpstreamAuthDenied  Kind = "UPSTREAM_AUTH_DENIED"
	KindUpstreamAuthFailure Kind = "UPSTREAM_AUTH_FAILURE"
	KindNotFound            Kind = "NOT_FOUND"
	KindValidation          Kind = "VALIDATION_FAILURE"
	KindNetwork             Kind = "NETWORK_FAILURE"
	KindUnauthenticated     Kind = "UNAUTHENTICATED"
	KindUnknown             Kind = "UNKNOWN_FAILURE"
)

// Generic fallback messages, used when nothing better can be extracted.
const (
	MsgNetwork            = "Network error. Please check your connection."
	MsgUnknown            = "Something went wrong."
	MsgInvalidCredentials = "Invalid email or password."
	MsgUnauthenticated    = "Login required."
)

var categories = map[Kind]goerrors.Category{
	KindInvalidCredentials:  goerrors.CategoryAuth,
	KindUpstreamAuthDenied:  goerrors.CategoryAuthz,
	KindUpstreamAuthFailure: goerrors.CategoryAuth,
	KindNotFound:            goerrors.CategoryNotFound,
	KindValidation:          goerrors.CategoryValidation,
	KindNetwork:             goerrors.CategoryExternal,
	KindUnauthenticated:     goerrors.CategoryAuth,
	KindUnknown:             goerrors.CategoryInternal,
}

// Category returns the go-errors category used for the kind.
func (k Kind) Category() goerrors.Category {
	if c, ok := categories[k]; ok {
		return c
	}
	return goerrors.CategoryInternal
}

func (k Kind) String() string { return string(k) }

// New builds a typed failure with a human readable message.
func New(kind Kind, message string) *goerrors.Error {
	return goerrors.New(message, kind.Category()).WithTextCode(string(kind))
}

// Wrap builds a typed failure keeping source as the cause.
func Wrap(source error, kind Kind, message string) *goerrors.Error {
	if source == nil {
		return New(kind, message)
	}
	return &goerrors.Error{
		Category:  kind.Category(),
		TextCode:  string(kind),
		Message:   message,
		Source:    source,
		Severity:  goerrors.SeverityError,
		Timestamp: time.Now(),
	}
}

// FromStatus maps an upstream HTTP status onto a kind.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	default:
		return KindUnknown
	}
}

// KindOf reports the failure kind of err. Errors that did not come from this package
// are classified as network failures when they are context errors and unknown otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *goerrors.Error
	if goerrors.As(err, &e) && e.TextCode != "" {
		return Kind(e.TextCode)
	}
	if goerrors.Is(err, context.DeadlineExceeded) || goerrors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindUnknown
}

// Is reports whether err is a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the best available human readable explanation for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *goerrors.Error
	if goerrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknown
}

// StatusMessage is the message used when the upstream body carries nothing useful.
func StatusMessage(status int) string {
	return fmt.Sprintf("Request failed (%d).", status)
}
