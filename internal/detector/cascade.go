//go:build gocv
// +build gocv

package detector

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Cascade is a Haar cascade face detector backed by OpenCV.
type Cascade struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	params     Params
	path       string
}

// Open loads the cascade from the first readable candidate path.
func Open(path string, params Params) (Detector, error) {
	classifier := gocv.NewCascadeClassifier()

	candidates := CandidatePaths(path)
	for _, p := range candidates {
		if classifier.Load(p) {
			return &Cascade{classifier: classifier, params: params, path: p}, nil
		}
	}

	classifier.Close()
	return nil, fmt.Errorf("failed to load face cascade from %s", strings.Join(candidates, ", "))
}

// Detect runs multi-scale detection with the configured scale factor and
// neighbor count and no size limits.
func (c *Cascade) Detect(img *image.Gray) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	faces := c.classifier.DetectMultiScaleWithParams(
		mat,
		c.params.ScaleFactor,
		c.params.MinNeighbors,
		0,
		image.Point{},
		image.Point{},
	)
	return faces, nil
}

// Path returns the cascade file that was loaded.
func (c *Cascade) Path() string {
	return c.path
}

// Close releases the OpenCV classifier.
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}

var _ Detector = (*Cascade)(nil)
