package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error is a classified domain error. Fields carries per-field messages for
// validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation error for a single field. An empty field
// produces an error without field details.
func Validation(field, msg string) *Error {
	e := &Error{Kind: KindValidation, Message: msg}
	if field != "" {
		e.Fields = map[string]string{field: msg}
	}
	return e
}

// InvalidField wraps a sentinel validation error such as ErrInvalidAmount.
// Its message is the sentinel's own text.
func InvalidField(field string, err error) *Error {
	return &Error{Kind: KindValidation, Fields: map[string]string{field: err.Error()}, Err: err}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found", Err: ErrNotFound}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: ErrConflict}
}

// KindOf reports the classification of err. Unclassified errors are
// internal, except the bare sentinels ErrNotFound and ErrConflict.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case isSentinelValidation(err):
		return KindValidation
	}
	return KindInternal
}

// FieldsOf returns per-field messages attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func isSentinelValidation(err error) bool {
	for _, s := range validationSentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
