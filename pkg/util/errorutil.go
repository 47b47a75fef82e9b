package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Error codes for ticket engine violations. Each code identifies exactly one
// violated invariant so the UI layer can translate it without guessing.
const (
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeTicketClosed           = "TICKET_CLOSED"
	CodeAlreadyAssigned        = "ALREADY_ASSIGNED"
	CodeDuplicateParticipant   = "DUPLICATE_PARTICIPANT"
	CodeParticipantNotFound    = "PARTICIPANT_NOT_FOUND"
	CodeThreadNotAllowed       = "THREAD_NOT_ALLOWED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInvalidTransition reports an illegal status change attempt.
func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition ticket from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

// NewTicketClosed reports a write attempted on a terminal ticket.
func NewTicketClosed(ticketID string) error {
	return NewDomainError(CodeTicketClosed, "ticket is closed",
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

// NewAlreadyAssigned reports an occupied analyst/authority slot.
func NewAlreadyAssigned(role string) error {
	return NewDomainError(CodeAlreadyAssigned,
		fmt.Sprintf("ticket already has an assigned %s", role),
		http.StatusConflict, map[string]any{"role": role})
}

// NewDuplicateParticipant reports a user already present on the ticket.
func NewDuplicateParticipant(userID string) error {
	return NewDomainError(CodeDuplicateParticipant, "user already participates in ticket",
		http.StatusConflict, map[string]any{"user_id": userID})
}

// NewParticipantNotFound reports a missing active participant entry.
func NewParticipantNotFound(userID string) error {
	return NewDomainError(CodeParticipantNotFound, "no active participant entry for user",
		http.StatusNotFound, map[string]any{"user_id": userID})
}

// NewThreadNotAllowed reports a role posting or reading outside its thread set.
func NewThreadNotAllowed(role, thread string) error {
	return NewDomainError(CodeThreadNotAllowed,
		fmt.Sprintf("role %s cannot use thread %s", role, thread),
		http.StatusForbidden,
		map[string]any{"role": role, "thread": thread})
}

// NewConcurrentModification reports a lost race on a serialized mutation.
func NewConcurrentModification(ticketID string) error {
	return NewDomainError(CodeConcurrentModification, "ticket was modified concurrently",
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

// NewStoreUnavailable reports an unreachable backing store. Callers own retry.
func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    "ticket store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
