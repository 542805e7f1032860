package game

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies a rejected command. The control surface maps each
// kind to an HTTP status code.
type FailureKind string

const (
	KindBadRequest   FailureKind = "bad_request"
	KindUnauthorized FailureKind = "unauthorized"
	KindForbidden    FailureKind = "forbidden"
	KindNotFound     FailureKind = "not_found"
	KindConflict     FailureKind = "conflict"
	KindGone         FailureKind = "gone"
)

// Failure is the tagged error returned by every transition. Transitions never
// panic; callers branch on Kind.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func badRequestf(format string, args ...any) *Failure {
	return failf(KindBadRequest, format, args...)
}

func unauthorizedf(format string, args ...any) *Failure {
	return failf(KindUnauthorized, format, args...)
}

func forbiddenf(format string, args ...any) *Failure {
	return failf(KindForbidden, format, args...)
}

func notFoundf(format string, args ...any) *Failure {
	return failf(KindNotFound, format, args...)
}

func conflictf(format string, args ...any) *Failure {
	return failf(KindConflict, format, args...)
}

func gonef(format string, args ...any) *Failure {
	return failf(KindGone, format, args...)
}

// KindOf extracts the failure kind from an error, defaulting to
// KindBadRequest for errors that did not originate in a transition.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindBadRequest
}

// HTTPStatus maps an error to the status code served by the control surface.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}
