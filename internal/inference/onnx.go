// internal/inference/onnx.go
package inference

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXClassifier wraps an ONNX runtime session for thread-safe inference.
// It implements the Classifier interface.
type ONNXClassifier struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	input   TensorInfo
	output  TensorInfo
}

// NewONNX creates a new ONNXClassifier by loading the model from modelPath.
// The input/output descriptors are read from the model once and reused on every call.
func NewONNX(modelPath string, opts Options) (*ONNXClassifier, error) {
	if opts.ONNXLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.ONNXLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("ONNX model %s has %d inputs and %d outputs", modelPath, len(inputs), len(outputs))
	}

	in := onnxTensorInfo(inputs[0], 0)
	out := onnxTensorInfo(outputs[0], 0)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if err := checkOutput(out); err != nil {
		return nil, err
	}

	var options *ort.SessionOptions
	if opts.NumThreads > 0 {
		options, err = ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer options.Destroy()
		if err := options.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{in.Name},
		[]string{out.Name},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session: session,
		input:   in,
		output:  out,
	}, nil
}

func onnxTensorInfo(info ort.InputOutputInfo, index int) TensorInfo {
	dtype := fmt.Sprintf("onnx_type_%d", info.DataType)
	if info.DataType == ort.TensorElementDataTypeFloat {
		dtype = "float32"
	}
	return TensorInfo{
		Name:  info.Name,
		Index: index,
		Shape: append([]int64(nil), info.Dimensions...),
		DType: dtype,
	}
}

// Predict runs inference on one face tensor.
// Input and output tensors are created per call and destroyed before returning.
func (c *ONNXClassifier) Predict(ctx context.Context, input []float32) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}
	if err := checkInputLen(input); err != nil {
		return Scores{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Scores{}, fmt.Errorf("inference session is nil")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(InputShape...), input)
	if err != nil {
		return Scores{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputShape := ort.NewShape(boundShape(c.output.Shape)...)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return Scores{}, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = c.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return Scores{}, fmt.Errorf("inference failed: %w", err)
	}

	return scoresFrom(outputTensor.GetData())
}

// Descriptors returns the tensor descriptors read at load time.
func (c *ONNXClassifier) Descriptors() (TensorInfo, TensorInfo) {
	return c.input, c.output
}

// Close releases the ONNX session resources
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		err := c.session.Destroy()
		c.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNXClassifier implements Classifier at compile time
var _ Classifier = (*ONNXClassifier)(nil)
