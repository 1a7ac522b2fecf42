package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can decide how to react to it
// without string matching.
type Kind string

const (
	Other                 Kind = ""
	InvalidFeed           Kind = "invalid_feed"
	InvalidDuration       Kind = "invalid_duration"
	FetchFailed           Kind = "fetch_failed"
	StorageWriteFailed    Kind = "storage_write_failed"
	NoTrackedPodcastFound Kind = "no_tracked_podcast_found"
	NotFound              Kind = "not_found"
	BadRequest            Kind = "bad_request"
)

func (k Kind) status() int {
	switch k {
	case InvalidFeed:
		return http.StatusUnprocessableEntity
	case NotFound, NoTrackedPodcastFound:
		return http.StatusNotFound
	case FetchFailed:
		return http.StatusBadGateway
	case BadRequest, InvalidDuration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured error shared by every package in the module.
type Error struct {
	Kind    Kind
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Kind == Other {
		return msg
	}
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}

	return fmt.Sprintf("%s: %s, details: %v", e.Kind, msg, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when the target is an *Error of the same, non-empty kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind != Other && t.Kind == e.Kind
}

type transport struct {
	Message string   `json:"message"`
	Kind    Kind     `json:"kind,omitempty"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}

	return json.Marshal(transport{
		Message: msg,
		Kind:    e.Kind,
		Details: e.Details,
		Status:  e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Err = errors.New(t.Message)
	e.Kind = t.Kind
	e.Details = t.Details
	e.Status = t.Status
	return nil
}

// E builds an *Error from its arguments, which may come in any order: a
// Kind, an HTTP status (int), a message (string), a wrapped error or details.
//
// When no status is given it is derived from the kind.
func E(args ...any) *Error {
	ret := &Error{}

	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			ret.Kind = arg
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	if ret.Status == 0 {
		ret.Status = ret.Kind.status()
	}
	if ret.Err == nil && ret.Kind != Other {
		ret.Err = errors.New(string(ret.Kind))
	}

	return ret
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Other
}

// Is is a shorthand for checking an error chain against a kind.
func Is(err error, kind Kind) bool {
	return err != nil && errors.Is(err, &Error{Kind: kind})
}
