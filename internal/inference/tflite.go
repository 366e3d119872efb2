//go:build tflite
// +build tflite

package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/mattn/go-tflite"
)

// TFLiteClassifier runs the gender model through the TensorFlow Lite C API.
// The interpreter owns a single set of tensors, so calls are serialized.
type TFLiteClassifier struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	input       TensorInfo
	output      TensorInfo
}

// NewTFLite loads a .tflite model, allocates its tensors and reads the
// input/output descriptors once.
func NewTFLite(modelPath string, opts Options) (Classifier, error) {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("failed to load TFLite model from %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	if opts.NumThreads > 0 {
		options.SetNumThread(opts.NumThreads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("failed to create TFLite interpreter")
	}

	c := &TFLiteClassifier{model: model, options: options, interpreter: interpreter}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		c.Close()
		return nil, fmt.Errorf("failed to allocate TFLite tensors: status %v", status)
	}
	if interpreter.GetInputTensorCount() == 0 || interpreter.GetOutputTensorCount() == 0 {
		c.Close()
		return nil, fmt.Errorf("TFLite model %s has no input or output tensors", modelPath)
	}

	c.input = tfliteTensorInfo(interpreter.GetInputTensor(0), 0)
	c.output = tfliteTensorInfo(interpreter.GetOutputTensor(0), 0)
	if err := checkInput(c.input); err != nil {
		c.Close()
		return nil, err
	}
	if err := checkOutput(c.output); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func tfliteTensorInfo(t *tflite.Tensor, index int) TensorInfo {
	shape := make([]int64, t.NumDims())
	for i := range shape {
		shape[i] = int64(t.Dim(i))
	}
	dtype := fmt.Sprintf("tflite_type_%d", int(t.Type()))
	if t.Type() == tflite.Float32 {
		dtype = "float32"
	}
	return TensorInfo{Name: t.Name(), Index: index, Shape: shape, DType: dtype}
}

// Predict copies the tensor into the input slot, invokes the interpreter and
// copies the two scores out of the output slot.
func (c *TFLiteClassifier) Predict(ctx context.Context, input []float32) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}
	if err := checkInputLen(input); err != nil {
		return Scores{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interpreter == nil {
		return Scores{}, fmt.Errorf("inference session is nil")
	}

	if status := c.interpreter.GetInputTensor(c.input.Index).CopyFromBuffer(input); status != tflite.OK {
		return Scores{}, fmt.Errorf("failed to create input tensor: status %v", status)
	}
	if status := c.interpreter.Invoke(); status != tflite.OK {
		return Scores{}, fmt.Errorf("inference failed: status %v", status)
	}

	out := c.interpreter.GetOutputTensor(c.output.Index).Float32s()
	return scoresFrom(out)
}

// Descriptors returns the tensor descriptors read at load time.
func (c *TFLiteClassifier) Descriptors() (TensorInfo, TensorInfo) {
	return c.input, c.output
}

// Close deletes the interpreter, its options and the model.
func (c *TFLiteClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.options != nil {
		c.options.Delete()
		c.options = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
	return nil
}

var _ Classifier = (*TFLiteClassifier)(nil)
