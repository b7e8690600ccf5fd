package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches by code so that errors derived with WithError still satisfy
// errors.Is against the sentinel they came from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Image and extraction errors
	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum allowed size",
		StatusCode: 413,
	}

	ErrImageTooSmall = &AppError{
		Code:       "IMAGE_TOO_SMALL",
		Message:    "Image is too small to contain a detectable face",
		StatusCode: 422,
	}

	ErrInvalidEmbedding = &AppError{
		Code:       "INVALID_EMBEDDING",
		Message:    "Face embedding has an invalid dimension or value",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "Could not find a face in the photo",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}

	ErrExtractionTimeout = &AppError{
		Code:       "EXTRACTION_TIMEOUT",
		Message:    "Face detection timed out, please try again",
		StatusCode: 503,
	}

	// Student errors
	ErrStudentNotFound = &AppError{
		Code:       "STUDENT_NOT_FOUND",
		Message:    "Student not found",
		StatusCode: 404,
	}

	ErrStudentExists = &AppError{
		Code:       "STUDENT_ALREADY_REGISTERED",
		Message:    "A student with this student_id is already registered",
		StatusCode: 409,
	}

	ErrIndexNumberExists = &AppError{
		Code:       "INDEX_NUMBER_ALREADY_REGISTERED",
		Message:    "A student with this index_number is already registered",
		StatusCode: 409,
	}

	// Exam room errors
	ErrRoomNotFound = &AppError{
		Code:       "ROOM_NOT_FOUND",
		Message:    "Exam room not found",
		StatusCode: 404,
	}

	ErrRoomExists = &AppError{
		Code:       "ROOM_ALREADY_EXISTS",
		Message:    "An exam room with this room_code already exists",
		StatusCode: 409,
	}

	ErrRoomRangeOverlap = &AppError{
		Code:       "ROOM_RANGE_OVERLAP",
		Message:    "Index range overlaps with an existing room assignment",
		StatusCode: 409,
	}

	ErrInvalidIndexRange = &AppError{
		Code:       "INVALID_INDEX_RANGE",
		Message:    "Start index must be less than or equal to end index",
		StatusCode: 422,
	}

	// Recognition errors
	ErrRecognitionUnavailable = &AppError{
		Code:       "RECOGNITION_UNAVAILABLE",
		Message:    "System temporarily unavailable, please try again later",
		StatusCode: 503,
	}
)
