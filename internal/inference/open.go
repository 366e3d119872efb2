package inference

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported classifier backends.
const (
	BackendAuto   = "auto"
	BackendONNX   = "onnx"
	BackendTFLite = "tflite"
)

// Options configures how a classifier model is loaded.
type Options struct {
	Backend         string
	NumThreads      int
	ONNXLibraryPath string
}

// ResolveBackend turns "auto" (or empty) into a concrete backend using the
// model file extension.
func ResolveBackend(backend, modelPath string) (string, error) {
	switch strings.ToLower(backend) {
	case BackendONNX:
		return BackendONNX, nil
	case BackendTFLite:
		return BackendTFLite, nil
	case "", BackendAuto:
		switch strings.ToLower(filepath.Ext(modelPath)) {
		case ".onnx":
			return BackendONNX, nil
		case ".tflite":
			return BackendTFLite, nil
		}
		return "", fmt.Errorf("cannot infer classifier backend from %q", modelPath)
	default:
		return "", fmt.Errorf("unknown classifier backend %q", backend)
	}
}

// Open loads the classifier at modelPath with the configured backend.
func Open(modelPath string, opts Options) (Classifier, error) {
	backend, err := ResolveBackend(opts.Backend, modelPath)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendONNX:
		c, err := NewONNX(modelPath, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return NewTFLite(modelPath, opts)
	}
}
