// Package tokens provides token count estimation for diagnostics. Estimates
// are reporting-only: nothing in the compaction policy keys off them.
package tokens

import "github.com/sednafx/memwell/pkg/turn"

// Estimator estimates the token count of a string. Implementations must be
// deterministic and side-effect free.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator estimates tokens using a simple characters-per-token ratio.
// A ratio of ~4 works well for English; ~3 for French or other Latin languages.
type CharEstimator struct {
	CharsPerToken float64
}

// NewCharEstimator creates a CharEstimator with the given ratio.
// If charsPerToken is <= 0, defaults to 4.0 (English approximation).
func NewCharEstimator(charsPerToken float64) *CharEstimator {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return &CharEstimator{CharsPerToken: charsPerToken}
}

// Estimate returns the estimated token count for the given text.
func (e *CharEstimator) Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(len(text)) / e.CharsPerToken
	// Always round up to avoid underestimation.
	return int(tokens) + 1
}

// EstimateTurns returns the total estimated tokens across all turn texts.
func EstimateTurns(estimator Estimator, turns []turn.Turn) int {
	total := 0
	for i := range turns {
		total += estimator.Estimate(turns[i].Text)
	}
	return total
}
