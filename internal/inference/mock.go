package inference

import (
	"context"
	"fmt"
	"sync"
)

// MockClassifier is a mock implementation of Classifier for testing.
// It returns fixed scores without requiring a native runtime.
type MockClassifier struct {
	mu sync.Mutex

	// Result is returned from every successful Predict call
	Result Scores
	// ShouldError if true, Predict will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Predict was called
	CallCount int
	// LastInput is a copy of the most recent input tensor
	LastInput []float32
}

// NewMock creates a new MockClassifier returning [0.2, 0.7]
func NewMock() *MockClassifier {
	return &MockClassifier{Result: Scores{Male: 0.2, Female: 0.7}}
}

// NewMockWithScores creates a MockClassifier with custom scores
func NewMockWithScores(male, female float32) *MockClassifier {
	return &MockClassifier{Result: Scores{Male: male, Female: female}}
}

// Predict validates the input size and returns the configured scores.
func (m *MockClassifier) Predict(ctx context.Context, input []float32) (Scores, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return Scores{}, fmt.Errorf("%s", m.ErrorMessage)
		}
		return Scores{}, fmt.Errorf("mock inference error")
	}
	if err := checkInputLen(input); err != nil {
		return Scores{}, err
	}

	m.LastInput = append(m.LastInput[:0], input...)
	return m.Result, nil
}

// Descriptors reports the fixed classifier contract.
func (m *MockClassifier) Descriptors() (TensorInfo, TensorInfo) {
	return TensorInfo{Name: "input", Shape: InputShape, DType: "float32"},
		TensorInfo{Name: "output", Shape: []int64{1, OutputSize}, DType: "float32"}
}

// Close is a no-op for the mock implementation
func (m *MockClassifier) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Predict call
func (m *MockClassifier) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockClassifier) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Calls returns the number of Predict calls so far.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Ensure MockClassifier implements Classifier at compile time
var _ Classifier = (*MockClassifier)(nil)
