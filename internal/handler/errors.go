// internal/handler/errors.go
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/SyedDaiam9101/gender-service/internal/middleware"
	"github.com/SyedDaiam9101/gender-service/internal/pipeline"
)

// Analyze outcomes used for logs and the gender_analysis_total counter.
const (
	outcomeUnavailable = "unavailable"
	outcomeDecode      = "decode_error"
	outcomeNoFace      = "no_face"
	outcomeBadRequest  = "bad_request"
	outcomeInternal    = "internal_error"
)

var errNoFile = errors.New("no file uploaded")

// APIError is an error with the HTTP status and client-facing detail it maps to.
type APIError struct {
	Status  int
	Detail  string
	Outcome string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Detail
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// apiError maps known errors to an APIError
func apiError(err error) *APIError {
	if err == nil {
		return nil
	}

	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}

	var fe *fiber.Error
	var ie *pipeline.InternalError

	switch {
	case errors.Is(err, pipeline.ErrModelUnavailable):
		return &APIError{Status: fiber.StatusServiceUnavailable, Detail: "AI Model not loaded", Outcome: outcomeUnavailable, Err: err}

	case errors.Is(err, pipeline.ErrDecode):
		return &APIError{Status: fiber.StatusBadRequest, Detail: "Could not decode image", Outcome: outcomeDecode, Err: err}

	case errors.Is(err, pipeline.ErrNoFace):
		return &APIError{Status: fiber.StatusBadRequest, Detail: "No face detected", Outcome: outcomeNoFace, Err: err}

	case errors.Is(err, errNoFile):
		return &APIError{Status: fiber.StatusBadRequest, Detail: "No file uploaded", Outcome: outcomeBadRequest, Err: err}

	case errors.As(err, &fe):
		outcome := outcomeBadRequest
		if fe.Code >= fiber.StatusInternalServerError {
			outcome = outcomeInternal
		}
		return &APIError{Status: fe.Code, Detail: fe.Message, Outcome: outcome, Err: err}

	case errors.As(err, &ie):
		return &APIError{Status: fiber.StatusInternalServerError, Detail: ie.Error(), Outcome: outcomeInternal, Err: err}

	default:
		return &APIError{Status: fiber.StatusInternalServerError, Detail: "internal error: " + err.Error(), Outcome: outcomeInternal, Err: err}
	}
}

// ErrorHandler renders every error as {"detail": "..."}.
func ErrorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		ae := apiError(err)

		if ae.Status >= fiber.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"request_id": middleware.GetRequestID(c),
				"path":       c.Path(),
				"status":     ae.Status,
			}).WithError(err).Error("request failed")
		}

		return c.Status(ae.Status).JSON(fiber.Map{"detail": ae.Detail})
	}
}
