// internal/inference/classifier.go
package inference

import "context"

// Classifier defines the interface for the two-class gender model.
// This abstraction allows for easy mocking in tests and swapping runtimes.
type Classifier interface {
	// Predict runs the model on a single face tensor laid out as
	// (1, InputHeight, InputWidth, InputChannels) float32 in [0, 1].
	Predict(ctx context.Context, input []float32) (Scores, error)

	// Descriptors returns the input and output tensor descriptors queried
	// when the model was loaded.
	Descriptors() (input, output TensorInfo)

	// Close releases any resources held by the classifier.
	Close() error
}

// Scores is the raw model output. The pair is not guaranteed to sum to 1.
type Scores struct {
	Male   float32
	Female float32
}
