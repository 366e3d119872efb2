//go:build !tflite
// +build !tflite

package inference

import "errors"

// ErrTFLiteDisabled is returned when the binary was built without the tflite tag.
var ErrTFLiteDisabled = errors.New("TFLite support is not compiled in (build with -tags tflite)")

// NewTFLite reports that the TFLite backend is unavailable in this build.
func NewTFLite(modelPath string, opts Options) (Classifier, error) {
	return nil, ErrTFLiteDisabled
}
