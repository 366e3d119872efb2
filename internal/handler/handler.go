// internal/handler/handler.go
package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/SyedDaiam9101/gender-service/internal/cache"
	"github.com/SyedDaiam9101/gender-service/internal/metrics"
	"github.com/SyedDaiam9101/gender-service/internal/middleware"
	"github.com/SyedDaiam9101/gender-service/internal/pipeline"
)

// uploadField is the multipart field the web client sends.
const uploadField = "file"

// Analyzer classifies one uploaded image.
type Analyzer interface {
	Ready() error
	Analyze(ctx context.Context, data []byte) (*pipeline.Result, error)
}

// Handler serves the HTTP endpoints.
// It uses the Analyzer interface for flexibility and testability.
type Handler struct {
	service  string
	analyzer Analyzer
	cache    *cache.Cache
	logger   logrus.FieldLogger
}

// New creates a new Handler. cache may be nil.
func New(service string, analyzer Analyzer, cache *cache.Cache, logger logrus.FieldLogger) *Handler {
	return &Handler{
		service:  service,
		analyzer: analyzer,
		cache:    cache,
		logger:   logger,
	}
}

// Alive handles GET /
func (h *Handler) Alive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.service,
	})
}

// AnalyzeGender handles POST /analyze-gender
func (h *Handler) AnalyzeGender(c *fiber.Ctx) error {
	start := time.Now()
	ctx := c.UserContext()
	log := h.logger.WithField("request_id", middleware.GetRequestID(c))

	// Model availability is checked before the upload is read
	if h.analyzer == nil {
		return h.fail(log, fmt.Errorf("%w: analyzer not configured", pipeline.ErrModelUnavailable))
	}
	if err := h.analyzer.Ready(); err != nil {
		return h.fail(log, err)
	}

	data, name, err := readUpload(c)
	if err != nil {
		return h.fail(log, err)
	}
	log = log.WithFields(logrus.Fields{"filename": name, "bytes": len(data)})

	var key string
	if h.cache != nil {
		key = cache.Key(data)
		var cached pipeline.Result
		hit, err := h.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.RecordCache("error")
			log.WithError(err).Warn("result cache lookup failed")
		case hit:
			metrics.RecordCache("hit")
			metrics.RecordAnalysis(cached.Label)
			log.WithFields(logrus.Fields{
				"gender":     cached.Label,
				"confidence": cached.Confidence,
				"cached":     true,
			}).Info("gender analyzed")
			return c.JSON(cached)
		default:
			metrics.RecordCache("miss")
		}
	}

	res, err := h.analyzer.Analyze(ctx, data)
	if err != nil {
		return h.fail(log, err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, res); err != nil {
			log.WithError(err).Warn("result cache store failed")
		}
	}

	metrics.RecordAnalysis(res.Label)
	log.WithFields(logrus.Fields{
		"gender":     res.Label,
		"confidence": res.Confidence,
		"total_ms":   float64(time.Since(start).Microseconds()) / 1000.0,
	}).Info("gender analyzed")

	return c.JSON(res)
}

// fail records the outcome and returns the error for ErrorHandler to render.
func (h *Handler) fail(log logrus.FieldLogger, err error) error {
	ae := apiError(err)
	metrics.RecordAnalysis(ae.Outcome)

	entry := log.WithFields(logrus.Fields{"outcome": ae.Outcome, "status": ae.Status}).WithError(err)
	if ae.Status >= fiber.StatusInternalServerError && ae.Outcome != outcomeUnavailable {
		entry.Error("analysis failed")
	} else {
		entry.Warn("analysis rejected")
	}
	return ae
}

// readUpload returns the bytes of the uploaded file. The "file" field is
// preferred; otherwise the first file part by field name is used.
func readUpload(c *fiber.Ctx) ([]byte, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errNoFile, err)
	}

	fh := pickFile(form)
	if fh == nil {
		return nil, "", errNoFile
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, fh.Filename, nil
}

func pickFile(form *multipart.Form) *multipart.FileHeader {
	if files := form.File[uploadField]; len(files) > 0 {
		return files[0]
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}
