// Package caseflow implements the case lifecycle and multi-party workflow
// engine: the case state machine, representation request workflow, hearing
// scheduling, defendant identity matching, and judgement issuance. It is a
// library-level contract over the document store; the HTTP handlers in
// api/handlers are one transport wrapping it.
package caseflow

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies an engine error for the calling layer. Validation kinds
// are detected before any write; PartiallyApplied can only arise after the
// first write of a multi-step workflow has committed.
type Kind string

// Error kinds
const (
	KindNotFound           Kind = "not_found"
	KindInvalidTransition  Kind = "invalid_transition"
	KindPreconditionFailed Kind = "precondition_failed"
	KindForbidden          Kind = "forbidden"
	KindConflict           Kind = "conflict"
	KindAlreadyResolved    Kind = "already_resolved"
	KindPartiallyApplied   Kind = "partially_applied"
	KindStoreUnavailable   Kind = "store_unavailable"
)

// Error carries the kind plus machine-readable context (ids involved, the
// attempted transition). Human-readable messages are the calling layer's job.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Context map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a context key/value pair and returns the error
func (e *Error) With(key, value string) *Error {
	if e.Context == nil {
		e.Context = map[string]string{}
	}
	e.Context[key] = value
	return e
}

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// storeError wraps a document-store failure. mongo.ErrNoDocuments maps to
// NotFound; everything else is StoreUnavailable, since the engine cannot
// tell "write didn't happen" from "ack was lost" and never retries itself.
func storeError(op string, err error) *Error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &Error{Kind: KindNotFound, Op: op, Message: "record not found", Err: err}
	}
	return &Error{Kind: KindStoreUnavailable, Op: op, Message: "store call failed", Err: err}
}

// partialError marks a multi-step workflow that committed some but not all
// writes. Callers must not blindly retry from step one.
func partialError(op, applied string, err error) *Error {
	e := &Error{Kind: KindPartiallyApplied, Op: op, Message: "workflow partially applied", Err: err}
	return e.With("applied", applied)
}

// KindOf returns the kind of an engine error, or the empty string for
// foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
