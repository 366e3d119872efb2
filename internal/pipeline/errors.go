package pipeline

import (
	"errors"
	"fmt"

	"github.com/SyedDaiam9101/gender-service/internal/model"
)

var (
	// ErrModelUnavailable means a model handle failed to load at startup.
	ErrModelUnavailable = model.ErrModelUnavailable
	// ErrDecode means the upload is not a decodable image.
	ErrDecode = errors.New("could not decode image")
	// ErrNoFace means the detector found no face.
	ErrNoFace = errors.New("no face detected")
)

// InternalError wraps an unexpected failure in one pipeline step.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
