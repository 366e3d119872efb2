// Package model owns the classifier and face detector handles for the
// lifetime of the process.
package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SyedDaiam9101/gender-service/internal/detector"
	"github.com/SyedDaiam9101/gender-service/internal/inference"
	"github.com/SyedDaiam9101/gender-service/internal/metrics"
)

// ErrModelUnavailable is returned when a handle failed to load at startup.
var ErrModelUnavailable = errors.New("model not loaded")

// Component names used in logs, metrics and health status.
const (
	ComponentClassifier = "classifier"
	ComponentDetector   = "detector"
)

// Config controls how the host acquires and loads its models.
type Config struct {
	ModelPath        string
	ModelURL         string
	Acquire          string
	DownloadAttempts int
	DownloadTimeout  time.Duration
	Classifier       inference.Options
	CascadePath      string
	Detector         detector.Params
}

// Host holds the two shared, read-only model handles. Either may be nil when
// loading failed; Ready reports that before any request work starts.
type Host struct {
	classifier inference.Classifier
	detector   detector.Detector
}

// NewHost wraps already-loaded handles. Nil handles are allowed.
func NewHost(classifier inference.Classifier, det detector.Detector) *Host {
	return &Host{classifier: classifier, detector: det}
}

// Start runs the startup sequence: acquire the classifier file, load the
// classifier, load the detector. Failures are logged and leave the matching
// handle empty; Start itself never fails.
func Start(ctx context.Context, cfg Config, logger logrus.FieldLogger) *Host {
	log := logger.WithField("component", "model")
	log.Info("AI service starting: loading models")

	h := &Host{}

	path, err := acquire(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Classifier model file not available")
	} else {
		c, err := inference.Open(path, cfg.Classifier)
		if err != nil {
			log.WithError(err).WithField("path", path).Error("Failed to load classifier")
		} else {
			in, out := c.Descriptors()
			log.WithFields(logrus.Fields{
				"path":   path,
				"input":  in.String(),
				"output": out.String(),
			}).Info("Gender model loaded")
			h.classifier = c
		}
	}

	d, err := detector.Open(cfg.CascadePath, cfg.Detector)
	if err != nil {
		log.WithError(err).Error("Face detector failed to load")
	} else {
		log.WithFields(logrus.Fields{
			"scale_factor":  cfg.Detector.ScaleFactor,
			"min_neighbors": cfg.Detector.MinNeighbors,
		}).Info("Face detector loaded")
		h.detector = d
	}

	metrics.SetModelLoaded(ComponentClassifier, h.classifier != nil)
	metrics.SetModelLoaded(ComponentDetector, h.detector != nil)
	return h
}

// Classifier returns the classifier handle, or nil.
func (h *Host) Classifier() inference.Classifier {
	if h == nil {
		return nil
	}
	return h.classifier
}

// Detector returns the detector handle, or nil.
func (h *Host) Detector() detector.Detector {
	if h == nil {
		return nil
	}
	return h.detector
}

// Ready returns ErrModelUnavailable naming the first missing handle.
func (h *Host) Ready() error {
	switch {
	case h == nil || h.classifier == nil:
		return fmt.Errorf("%w: %s", ErrModelUnavailable, ComponentClassifier)
	case h.detector == nil:
		return fmt.Errorf("%w: %s", ErrModelUnavailable, ComponentDetector)
	}
	return nil
}

// Close releases both handles.
func (h *Host) Close() error {
	if h == nil {
		return nil
	}
	var errs []error
	if h.classifier != nil {
		errs = append(errs, h.classifier.Close())
	}
	if h.detector != nil {
		errs = append(errs, h.detector.Close())
	}
	return errors.Join(errs...)
}
