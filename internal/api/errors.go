package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure for the caller.
type Kind int

const (
	KindTransient Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	}
	return "transient"
}

// Sentinels for client-side pre-checks. Wrap them with fmt.Errorf("%w: ...").
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalid         = errors.New("invalid request")
	ErrTransient       = errors.New("temporarily unavailable")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindInvalid:
		return ErrInvalid
	}
	return ErrTransient
}

// Error is the typed failure of an API call.
type Error struct {
	Status  int
	Code    string
	Message string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("api %s (%d): %s", e.Kind, e.Status, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindForStatus maps an HTTP status to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindInvalid
	}
	return KindTransient
}

var codeKinds = map[string]Kind{
	"init_data_missing": KindUnauthenticated,
	"hash_missing":      KindUnauthenticated,
	"hash_mismatch":     KindUnauthenticated,
	"user_missing":      KindUnauthenticated,
	"unauthorized":      KindUnauthenticated,
	"forbidden":         KindForbidden,
	"feedback_closed":   KindForbidden,
}

// KindForCode maps a server error code to a Kind. Codes ending in
// "_not_found" are not found; anything unknown is invalid.
func KindForCode(code string) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	if strings.HasSuffix(code, "_not_found") {
		return KindNotFound
	}
	return KindInvalid
}

// KindOf classifies any error returned by this module. Unclassified errors
// are treated as transient since the next poll retries them.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	for _, k := range []Kind{KindUnauthenticated, KindForbidden, KindNotFound, KindInvalid} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindTransient
}

// CodeOf returns the server error code, if any.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

var authMessages = map[string]string{
	"init_data_missing": "No identity data. Open the app from the chat client.",
	"hash_missing":      "Identity data has no signature. Restart the app.",
	"hash_mismatch":     "Identity data does not match the bot token.",
	"user_missing":      "Identity data has no user. Restart the app.",
}

// Message turns err into a short user-facing sentence.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out."
	}
	code := CodeOf(err)
	switch KindOf(err) {
	case KindUnauthenticated:
		if msg, ok := authMessages[code]; ok {
			return msg
		}
		return "Session expired. Restart the app."
	case KindForbidden:
		if code == "feedback_closed" {
			return "Feedback is closed (72 hours after the match)."
		}
		return "You are not allowed to do that."
	case KindNotFound:
		return "Not found. It may have been deleted."
	case KindInvalid:
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Code != "" {
			return "Request rejected: " + apiErr.Code + "."
		}
		return err.Error()
	}
	return "No connection to the server."
}
