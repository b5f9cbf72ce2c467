package gh

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	github "github.com/google/go-github/v55/github"
)

// Kind categorizes upstream failures so callers can report a cause
// without leaking the raw GitHub response body.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindRateLimited  Kind = "rate_limited"
	KindUnavailable  Kind = "unavailable"
	KindUnknown      Kind = "unknown"
)

// apiError tags an underlying error with its taxonomy kind while keeping
// the original error reachable through errors.Is/As.
type apiError struct {
	kind Kind
	err  error
}

func (e *apiError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *apiError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Errorf builds a new error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &apiError{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf reports the taxonomy kind of err, unwrapping as needed.
// Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	var target *apiError
	if errors.As(err, &target) {
		return target.kind
	}
	return KindUnknown
}

// IsNotFound reports whether err represents a missing ref, path, or object.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err represents a content-id mismatch or a
// concurrent ref change rejected by GitHub.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// classify maps a go-github error onto the taxonomy. The classified
// error wraps the original, so callers can still unwrap it.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var alreadyClassified *apiError
	if errors.As(err, &alreadyClassified) {
		return err
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &apiError{kind: KindRateLimited, err: err}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &apiError{kind: KindRateLimited, err: err}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return &apiError{kind: kindForStatus(respErr.Response.StatusCode), err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &apiError{kind: KindUnavailable, err: err}
	}

	return &apiError{kind: KindUnknown, err: err}
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindForbidden
	// GitHub reports a stale content id on the contents API as 409 or 422
	// depending on the endpoint; both mean the caller lost a race.
	case code == http.StatusConflict || code == http.StatusUnprocessableEntity:
		return KindConflict
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500 && code <= 599:
		return KindUnavailable
	default:
		return KindUnknown
	}
}
