package deepface

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
)

// StatusError is a non-2xx answer from the DeepFace API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// clientError reports whether err is a 4xx answer. Those are never retried.
func clientError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= 400 && se.StatusCode < 500
}

// noFaceError reports whether DeepFace rejected the image because enforce_detection
// found no face in it.
func noFaceError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 400 {
		return false
	}
	body := strings.ToLower(se.Body)
	return strings.Contains(body, "face could not be detected")
}
