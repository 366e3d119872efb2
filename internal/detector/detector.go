// Package detector finds face bounding boxes in grayscale images.
package detector

import (
	"image"
	"path/filepath"
)

// Detector returns face bounding boxes in detector-native order.
type Detector interface {
	// Detect runs the detector on a grayscale image. An empty slice means no face.
	Detect(img *image.Gray) ([]image.Rectangle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Params holds the multi-scale detection settings.
type Params struct {
	// ScaleFactor is how much the image is shrunk between scales.
	ScaleFactor float64
	// MinNeighbors is how many overlapping candidates a detection needs to be kept.
	MinNeighbors int
}

// DefaultParams are the settings the gender model was validated with.
var DefaultParams = Params{
	ScaleFactor:  1.1,
	MinNeighbors: 4,
}

// DefaultCascade is the OpenCV frontal face cascade file name.
const DefaultCascade = "haarcascade_frontalface_default.xml"

var cascadeDirs = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/usr/share/opencv/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// CandidatePaths lists the cascade locations tried in order: the configured
// path first, then the file name under the usual OpenCV data directories.
func CandidatePaths(path string) []string {
	if path == "" {
		path = DefaultCascade
	}
	paths := []string{path}
	if filepath.IsAbs(path) {
		return paths
	}
	name := filepath.Base(path)
	for _, dir := range cascadeDirs {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}
