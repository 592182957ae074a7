package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidFormat    = errors.New("invalid token format")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Catalogue errors
var (
	ErrFacultyNotFound         = errors.New("faculty not found")
	ErrFacultyAlreadyExists    = errors.New("faculty with this name or code already exists")
	ErrFacultyHasRelations     = errors.New("faculty has associated departments and cannot be deleted")
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrDepartmentAlreadyExists = errors.New("department with this name or code already exists")
	ErrDepartmentHasRelations  = errors.New("department has associated programs or teachers and cannot be deleted")
	ErrProgramNotFound         = errors.New("program not found")
	ErrProgramAlreadyExists    = errors.New("program with this code already exists")
	ErrSubjectNotFound         = errors.New("subject not found")
	ErrSubjectAlreadyExists    = errors.New("subject with this code already exists")
)

// Estate errors
var (
	ErrBuildingNotFound      = errors.New("building not found")
	ErrBuildingAlreadyExists = errors.New("building with this code already exists")
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomAlreadyExists     = errors.New("room with this name already exists in the building")
	ErrRoomInUse             = errors.New("room has upcoming sessions and cannot be deleted")
)

// Scheduling errors
var (
	ErrTeacherNotFound         = errors.New("teacher not found")
	ErrTeacherInactive         = errors.New("teacher is not active")
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionCancelled        = errors.New("session is cancelled")
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
	ErrUnavailabilityNotFound  = errors.New("unavailability not found")
	ErrUnavailabilityOverlaps  = errors.New("teacher has sessions scheduled in this window")
	ErrScheduleBusy            = errors.New("schedule is being modified concurrently, retry later")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is reports whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
