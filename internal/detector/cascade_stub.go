//go:build !gocv
// +build !gocv

package detector

import "errors"

// ErrGoCVDisabled is returned when the binary was built without the gocv tag.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// Open reports that the OpenCV cascade is unavailable in this build.
func Open(path string, params Params) (Detector, error) {
	return nil, ErrGoCVDisabled
}
