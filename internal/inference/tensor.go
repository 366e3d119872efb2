package inference

import (
	"fmt"
	"strings"
)

// Fixed classifier contract.
const (
	InputHeight   = 128
	InputWidth    = 128
	InputChannels = 3
	InputSize     = InputHeight * InputWidth * InputChannels
	OutputSize    = 2
)

// InputShape is the shape bound to the input slot on every call. Batch is always 1.
var InputShape = []int64{1, InputHeight, InputWidth, InputChannels}

// TensorInfo describes one model input or output slot.
type TensorInfo struct {
	Name  string
	Index int
	Shape []int64
	DType string
}

func (t TensorInfo) String() string {
	dims := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s[%d] (%s) %s", t.Name, t.Index, strings.Join(dims, ","), t.DType)
}

// checkInput verifies that a model input accepts (1,128,128,3) float32.
// A non-positive leading dimension is a dynamic batch and is accepted.
func checkInput(info TensorInfo) error {
	if info.DType != "float32" {
		return fmt.Errorf("input %s has dtype %s, expected float32", info.Name, info.DType)
	}
	if len(info.Shape) != len(InputShape) {
		return fmt.Errorf("input %s has rank %d, expected %d", info.Name, len(info.Shape), len(InputShape))
	}
	if info.Shape[0] > 1 {
		return fmt.Errorf("input %s has batch dimension %d, expected 1", info.Name, info.Shape[0])
	}
	for i := 1; i < len(InputShape); i++ {
		if info.Shape[i] != InputShape[i] {
			return fmt.Errorf("input %s has shape %v, expected %v", info.Name, info.Shape, InputShape)
		}
	}
	return nil
}

// checkOutput verifies that a model output yields exactly two float32 values
// once a dynamic batch dimension is bound to 1.
func checkOutput(info TensorInfo) error {
	if info.DType != "float32" {
		return fmt.Errorf("output %s has dtype %s, expected float32", info.Name, info.DType)
	}
	if n := elementCount(boundShape(info.Shape)); n != OutputSize {
		return fmt.Errorf("output %s has shape %v (%d values), expected %d values", info.Name, info.Shape, n, OutputSize)
	}
	return nil
}

// boundShape replaces dynamic (non-positive) dimensions with 1.
func boundShape(shape []int64) []int64 {
	out := make([]int64, len(shape))
	for i, d := range shape {
		if d <= 0 {
			d = 1
		}
		out[i] = d
	}
	return out
}

func elementCount(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

func scoresFrom(out []float32) (Scores, error) {
	if len(out) < OutputSize {
		return Scores{}, fmt.Errorf("model returned %d values, expected %d", len(out), OutputSize)
	}
	return Scores{Male: out[0], Female: out[1]}, nil
}

func checkInputLen(input []float32) error {
	if len(input) != InputSize {
		return fmt.Errorf("input has wrong size: got %d, expected %d", len(input), InputSize)
	}
	return nil
}
