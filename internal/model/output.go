package model

import (
	"errors"
	"fmt"
	"math"
)

// OutputKind tells whether raw scores still need normalizing.
type OutputKind int

const (
	// Logits is a 2-D batch of unnormalized scores.
	Logits OutputKind = iota
	// Probabilities is a 1-D vector that already sums to one.
	Probabilities
)

func (k OutputKind) String() string {
	switch k {
	case Logits:
		return "logits"
	case Probabilities:
		return "probabilities"
	default:
		return "unknown"
	}
}

var ErrEmptyOutput = errors.New("model returned no scores")

// Output is what an Inferer returns for a single input batch.
type Output struct {
	Kind   OutputKind
	Shape  []int64
	Values []float32
}

// Distribution resolves the output into a probability vector over Classes.
// Logits are softmaxed over the first row; probabilities pass through.
func (o Output) Distribution() ([]float64, error) {
	if len(o.Values) == 0 {
		return nil, ErrEmptyOutput
	}

	var scores []float32
	switch o.Kind {
	case Logits:
		row := len(o.Values)
		if len(o.Shape) == 2 && o.Shape[1] > 0 {
			row = int(o.Shape[1])
		}
		if row > len(o.Values) {
			return nil, fmt.Errorf("output shape %v exceeds %d values", o.Shape, len(o.Values))
		}
		scores = o.Values[:row]
	case Probabilities:
		scores = o.Values
	default:
		return nil, fmt.Errorf("unknown output kind %d", o.Kind)
	}

	if len(scores) != len(Classes) {
		return nil, fmt.Errorf("model produced %d scores, expected %d", len(scores), len(Classes))
	}

	probs := make([]float64, len(scores))
	for i, v := range scores {
		probs[i] = float64(v)
	}
	if o.Kind == Logits {
		return Softmax(probs), nil
	}
	return probs, nil
}

// Softmax normalizes scores into a distribution. The maximum is subtracted
// before exponentiation so large logits do not overflow.
func Softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	maxVal := scores[0]
	for _, s := range scores[1:] {
		if s > maxVal {
			maxVal = s
		}
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest value; ties go to the lowest index.
func Argmax(values []float64) int {
	maxIdx := 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}
