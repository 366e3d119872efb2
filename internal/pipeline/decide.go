package pipeline

import (
	"fmt"
	"math"

	"github.com/SyedDaiam9101/gender-service/internal/inference"
)

// Labels returned to clients.
const (
	LabelMale   = "male"
	LabelFemale = "female"
)

// Result is the classification of the first detected face.
type Result struct {
	Label      string  `json:"gender"`
	Confidence float64 `json:"confidence"`
}

// decide picks the larger score. A tie goes to female.
func decide(s inference.Scores) (*Result, error) {
	for _, v := range []float32{s.Male, s.Female} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("model returned non-finite score %v", v)
		}
	}
	if s.Male > s.Female {
		return &Result{Label: LabelMale, Confidence: float64(s.Male)}, nil
	}
	return &Result{Label: LabelFemale, Confidence: float64(s.Female)}, nil
}
