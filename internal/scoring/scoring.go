// Package scoring turns a fact's vote tally into a bounded confidence score.
package scoring

import (
	"fmt"
	"math"
)

// Scorer maps (upvotes, downvotes) to a score in [0, 1]. Implementations
// must be deterministic, non-decreasing in upvotes and non-increasing in
// downvotes.
type Scorer interface {
	Score(upvotes, downvotes int) float64
}

// BayesianAverage is the posterior mean of a Beta(PriorUp, PriorDown)
// prior. With the default prior an untouched fact scores 0.5.
type BayesianAverage struct {
	PriorUp   float64
	PriorDown float64
}

func (b BayesianAverage) Score(upvotes, downvotes int) float64 {
	up := float64(max(upvotes, 0)) + b.PriorUp
	down := float64(max(downvotes, 0)) + b.PriorDown
	if up+down == 0 {
		return 0.5
	}
	return up / (up + down)
}

// WilsonLowerBound is the lower bound of the Wilson score interval at
// confidence Z. It scores 0 until there is evidence, which ranks
// well-attested facts above new ones.
type WilsonLowerBound struct {
	Z float64
}

func (w WilsonLowerBound) Score(upvotes, downvotes int) float64 {
	up := float64(max(upvotes, 0))
	n := up + float64(max(downvotes, 0))
	if up == 0 {
		return 0
	}
	z2 := w.Z * w.Z
	phat := up / n
	centre := phat + z2/(2*n)
	margin := w.Z * math.Sqrt((phat*(1-phat)+z2/(4*n))/n)
	return math.Max(0, (centre-margin)/(1+z2/n))
}

const (
	NameBayesian = "bayesian"
	NameWilson   = "wilson"
)

// Default is the scorer used when none is configured.
var Default Scorer = BayesianAverage{PriorUp: 1, PriorDown: 1}

// New returns the scorer registered under name.
func New(name string, priorUp, priorDown, z float64) (Scorer, error) {
	switch name {
	case "", NameBayesian:
		if priorUp < 0 || priorDown < 0 {
			return nil, fmt.Errorf("bayesian prior must be non-negative, got (%v, %v)", priorUp, priorDown)
		}
		return BayesianAverage{PriorUp: priorUp, PriorDown: priorDown}, nil
	case NameWilson:
		if z <= 0 {
			return nil, fmt.Errorf("wilson z must be positive, got %v", z)
		}
		return WilsonLowerBound{Z: z}, nil
	}
	return nil, fmt.Errorf("unknown scorer %q", name)
}
