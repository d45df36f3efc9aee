package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// NewPrediction pairs scores with class labels and picks the highest one.
// Ties resolve to the earliest class.
func NewPrediction(classes []string, scores []float64) (*Prediction, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("model returned no scores")
	}
	if len(scores) != len(classes) {
		return nil, fmt.Errorf("model returned %d scores for %d classes", len(scores), len(classes))
	}

	probabilities := make(map[string]float64, len(classes))
	for i, cls := range classes {
		probabilities[cls] = scores[i]
	}

	return &Prediction{
		PredictedClass: classes[floats.MaxIdx(scores)],
		Probabilities:  probabilities,
	}, nil
}

// Softmax turns logits into probabilities that sum to one.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}

	out := make([]float64, len(logits))
	copy(out, logits)

	floats.AddConst(-floats.Max(out), out)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(out), out)

	return out
}

func toFloat64(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
