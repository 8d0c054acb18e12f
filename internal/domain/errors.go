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

// Is matches on Code so that errors.Is(err, ErrNoFaceDetected) holds
// for copies produced by WithError.
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

	// Registration and matching errors

	ErrNameRequired = &AppError{
		Code:       "NAME_REQUIRED",
		Message:    "Please enter a user name",
		StatusCode: 422,
	}

	ErrImageRequired = &AppError{
		Code:       "IMAGE_REQUIRED",
		Message:    "Please choose an image",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected, please try again",
		StatusCode: 422,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrRegistryEmpty = &AppError{
		Code:       "REGISTRY_EMPTY",
		Message:    "No users registered, register a user before checking for a match",
		StatusCode: 409,
	}

	ErrOperationInProgress = &AppError{
		Code:       "OPERATION_IN_PROGRESS",
		Message:    "Another detection is in progress, try again when it finishes",
		StatusCode: 409,
	}

	// Resource availability errors

	ErrModelsNotLoaded = &AppError{
		Code:       "MODELS_NOT_LOADED",
		Message:    "Face recognition models are not loaded",
		StatusCode: 503,
	}

	ErrCameraUnavailable = &AppError{
		Code:       "CAMERA_UNAVAILABLE",
		Message:    "Camera is not available",
		StatusCode: 503,
	}

	ErrDetectionFailed = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    "Face detection backend failed",
		StatusCode: 502,
	}
)
