package inference

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestMockClassifier_Predict(t *testing.T) {
	mock := NewMock()

	input := make([]float32, InputSize)
	scores, err := mock.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if scores.Male != 0.2 || scores.Female != 0.7 {
		t.Errorf("Scores = %+v, expected {0.2 0.7}", scores)
	}

	if mock.CallCount != 1 {
		t.Errorf("Expected CallCount=1, got %d", mock.CallCount)
	}
	if len(mock.LastInput) != InputSize {
		t.Errorf("Expected LastInput of %d values, got %d", InputSize, len(mock.LastInput))
	}
}

func TestMockClassifier_PredictError(t *testing.T) {
	mock := NewMock()
	mock.SetError("test error")

	_, err := mock.Predict(context.Background(), make([]float32, InputSize))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if err.Error() != "test error" {
		t.Errorf("Expected 'test error', got '%s'", err.Error())
	}

	mock.ClearError()
	if _, err := mock.Predict(context.Background(), make([]float32, InputSize)); err != nil {
		t.Errorf("Expected no error after ClearError, got %v", err)
	}
}

func TestMockClassifier_WrongInputSize(t *testing.T) {
	mock := NewMock()

	_, err := mock.Predict(context.Background(), []float32{0.1, 0.2})
	if err == nil {
		t.Fatal("Expected error for wrong input size")
	}
	if !strings.Contains(err.Error(), "wrong size") {
		t.Errorf("Expected wrong size error, got %v", err)
	}
}

func TestMockClassifier_CustomScores(t *testing.T) {
	mock := NewMockWithScores(0.9, 0.1)

	scores, err := mock.Predict(context.Background(), make([]float32, InputSize))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if scores.Male != 0.9 || scores.Female != 0.1 {
		t.Errorf("Scores = %+v, expected {0.9 0.1}", scores)
	}
}

func TestCheckInput(t *testing.T) {
	tests := []struct {
		name    string
		info    TensorInfo
		wantErr bool
	}{
		{"exact", TensorInfo{Name: "in", Shape: []int64{1, 128, 128, 3}, DType: "float32"}, false},
		{"dynamic batch", TensorInfo{Name: "in", Shape: []int64{-1, 128, 128, 3}, DType: "float32"}, false},
		{"batch 4", TensorInfo{Name: "in", Shape: []int64{4, 128, 128, 3}, DType: "float32"}, true},
		{"channels first", TensorInfo{Name: "in", Shape: []int64{1, 3, 128, 128}, DType: "float32"}, true},
		{"wrong rank", TensorInfo{Name: "in", Shape: []int64{128, 128, 3}, DType: "float32"}, true},
		{"uint8", TensorInfo{Name: "in", Shape: []int64{1, 128, 128, 3}, DType: "uint8"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkInput(tt.info)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckOutput(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int64
		wantErr bool
	}{
		{"batch and pair", []int64{1, 2}, false},
		{"dynamic batch", []int64{-1, 2}, false},
		{"flat pair", []int64{2}, false},
		{"three classes", []int64{1, 3}, true},
		{"single score", []int64{1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOutput(TensorInfo{Name: "out", Shape: tt.shape, DType: "float32"})
			if (err != nil) != tt.wantErr {
				t.Errorf("checkOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		backend string
		path    string
		want    string
		wantErr bool
	}{
		{"auto", "model_gender_nonq.tflite", BackendTFLite, false},
		{"", "models/gender.onnx", BackendONNX, false},
		{"AUTO", "models/GENDER.ONNX", BackendONNX, false},
		{"onnx", "model.bin", BackendONNX, false},
		{"tflite", "model.bin", BackendTFLite, false},
		{"auto", "model.bin", "", true},
		{"torch", "model.pt", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveBackend(tt.backend, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveBackend(%q, %q) error = %v, wantErr %v", tt.backend, tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveBackend(%q, %q) = %q, want %q", tt.backend, tt.path, got, tt.want)
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	c, err := Open("model.pt", Options{Backend: "auto"})
	if err == nil {
		t.Fatal("Expected error for unknown model extension")
	}
	if c != nil {
		t.Errorf("Expected nil classifier on error, got %T", c)
	}
}

func TestRealInference_WithModel(t *testing.T) {
	// Skip if ONNX model or library is not available
	modelPath := "testdata/gender.onnx"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Skipping real inference test: testdata/gender.onnx not found")
	}

	// Try to create the classifier - will fail if ONNX library not installed
	c, err := Open(modelPath, Options{Backend: BackendONNX})
	if err != nil {
		t.Skipf("Skipping real inference test: %v", err)
	}
	defer c.Close()

	input := make([]float32, InputSize)
	for i := range input {
		input[i] = 0.5
	}

	first, err := c.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	// Same input, same model: identical scores
	second, err := c.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if first != second {
		t.Errorf("Expected deterministic scores, got %+v then %+v", first, second)
	}
}
