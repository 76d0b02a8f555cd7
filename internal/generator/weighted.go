package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"example.com/ecomdata/internal/config"
)

// ErrInvalidWeights is returned for an empty set or non-positive weights.
var ErrInvalidWeights = errors.New("invalid categorical weights")

// Weighted is a discrete distribution backed by a cumulative weight table.
type Weighted struct {
	values     []string
	cumulative []float64
}

// NewWeighted builds a sampler from choices. Weights need not sum to one.
func NewWeighted(choices []config.Choice) (*Weighted, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidWeights)
	}
	w := &Weighted{
		values:     make([]string, len(choices)),
		cumulative: make([]float64, len(choices)),
	}
	var total float64
	for i, c := range choices {
		if c.Weight <= 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return nil, fmt.Errorf("%w: %q has weight %v", ErrInvalidWeights, c.Value, c.Weight)
		}
		total += c.Weight
		w.values[i] = c.Value
		w.cumulative[i] = total
	}
	return w, nil
}

// Uniform is a Weighted where every value has the same weight.
func Uniform(values []string) (*Weighted, error) {
	choices := make([]config.Choice, len(values))
	for i, v := range values {
		choices[i] = config.Choice{Value: v, Weight: 1}
	}
	return NewWeighted(choices)
}

// Pick maps u in [0,1) onto the cumulative table.
func (w *Weighted) Pick(u float64) string {
	target := u * w.cumulative[len(w.cumulative)-1]
	for i, c := range w.cumulative {
		if target < c {
			return w.values[i]
		}
	}
	return w.values[len(w.values)-1]
}

// Sample draws one value.
func (w *Weighted) Sample(r *rand.Rand) string {
	return w.Pick(r.Float64())
}

// Probabilities returns the normalized weight of each value.
func (w *Weighted) Probabilities() map[string]float64 {
	total := w.cumulative[len(w.cumulative)-1]
	out := make(map[string]float64, len(w.values))
	prev := 0.0
	for i, v := range w.values {
		out[v] += (w.cumulative[i] - prev) / total
		prev = w.cumulative[i]
	}
	return out
}
