package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgInvalidTextRepresentation is raised when an id is not a valid UUID.
const pgInvalidTextRepresentation = "22P02"

// Error codes surfaced to API callers.
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodePermissionDenied        = "PERMISSION_DENIED"
	CodeInvalidStatusForProject = "INVALID_STATUS_FOR_PROJECT"
	CodeTransitionNotAllowed    = "TRANSITION_NOT_ALLOWED"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewPermissionDenied reports that the actor lacks the relationship required for the action.
func NewPermissionDenied(message string, details map[string]any) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, details)
}

// NewInvalidStatusForProject reports a status that does not belong to the ticket's project.
func NewInvalidStatusForProject(statusID, projectID string) error {
	return NewDomainError(CodeInvalidStatusForProject, "status does not belong to project", http.StatusUnprocessableEntity, map[string]any{
		"status_id":  statusID,
		"project_id": projectID,
	})
}

// NewTransitionNotAllowed reports a move rejected by the project's workflow policy.
func NewTransitionNotAllowed(fromStatusID, toStatusID string) error {
	return NewDomainError(CodeTransitionNotAllowed, "status transition not allowed", http.StatusConflict, map[string]any{
		"from_status_id": fromStatusID,
		"to_status_id":   toStatusID,
	})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
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
	if IsNotFound(err) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError wraps storage errors, translating missing rows into NOT_FOUND for resource.
func MapError(err error, resource string, details map[string]any) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if IsNotFound(err) {
		return NewNotFound(resource, details)
	}
	return NewInternalError(err)
}

// IsNotFound reports whether a storage error means the row cannot exist:
// no rows matched, or the id was not even a well-formed UUID.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}
