// Package pipeline turns an uploaded image into a gender label.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SyedDaiam9101/gender-service/internal/metrics"
	"github.com/SyedDaiam9101/gender-service/internal/model"
)

var tracer = otel.Tracer("pipeline")

// Options tunes preprocessing.
type Options struct {
	// ChannelOrder is the classifier's expected channel order, bgr or rgb.
	ChannelOrder string
	// MaxPixels rejects larger images at decode. Zero means DefaultMaxPixels.
	MaxPixels int
}

// Pipeline runs decode, detection, preprocessing and classification against
// the shared model host. It holds no per-request state.
type Pipeline struct {
	host *model.Host
	opts Options
}

// New creates a Pipeline over host.
func New(host *model.Host, opts Options) *Pipeline {
	if opts.ChannelOrder == "" {
		opts.ChannelOrder = ChannelOrderBGR
	}
	if opts.MaxPixels == 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Pipeline{host: host, opts: opts}
}

// Ready reports ErrModelUnavailable when either model handle is empty.
func (p *Pipeline) Ready() error {
	return p.host.Ready()
}

// Analyze classifies the first face found in data.
func (p *Pipeline) Analyze(ctx context.Context, data []byte) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(data)))

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, internal("analyze", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := p.host.Ready(); err != nil {
		return nil, err
	}

	img, err := decode(data, p.opts.MaxPixels)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("image.width", img.Rect.Dx()),
		attribute.Int("image.height", img.Rect.Dy()),
	)

	gray := grayscale(img)

	_, detectSpan := tracer.Start(ctx, "Detect")
	start := time.Now()
	boxes, err := p.host.Detector().Detect(gray)
	metrics.RecordDetectionLatency(time.Since(start).Seconds())
	detectSpan.SetAttributes(attribute.Int("faces", len(boxes)))
	detectSpan.End()
	if err != nil {
		return nil, internal("detect", err)
	}
	if len(boxes) == 0 {
		return nil, ErrNoFace
	}

	face, err := cropFace(img, boxes[0])
	if err != nil {
		return nil, internal("crop", err)
	}

	input, err := toTensor(resizeFace(face), p.opts.ChannelOrder)
	if err != nil {
		return nil, internal("preprocess", err)
	}

	classifyCtx, classifySpan := tracer.Start(ctx, "Classify")
	start = time.Now()
	scores, err := p.host.Classifier().Predict(classifyCtx, input)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())
	classifySpan.End()
	if err != nil {
		return nil, internal("classify", err)
	}

	res, err = decide(scores)
	if err != nil {
		return nil, internal("decide", err)
	}
	span.SetAttributes(
		attribute.String("gender", res.Label),
		attribute.Float64("confidence", res.Confidence),
	)
	return res, nil
}
