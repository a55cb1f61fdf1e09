package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scorers() map[string]Scorer {
	return map[string]Scorer{
		"bayesian":      Default,
		"bayesian-flat": BayesianAverage{PriorUp: 5, PriorDown: 5},
		"wilson":        WilsonLowerBound{Z: 1.96},
	}
}

func TestMonotonic(t *testing.T) {
	for name, s := range scorers() {
		t.Run(name, func(t *testing.T) {
			for u := 0; u <= 40; u++ {
				for d := 0; d <= 40; d++ {
					base := s.Score(u, d)
					assert.GreaterOrEqual(t, s.Score(u+1, d), base, "score(%d+1,%d)", u, d)
					assert.LessOrEqual(t, s.Score(u, d+1), base, "score(%d,%d+1)", u, d)
				}
			}
		})
	}
}

func TestBounded(t *testing.T) {
	for name, s := range scorers() {
		t.Run(name, func(t *testing.T) {
			for _, tc := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1_000_000, 0}, {0, 1_000_000}, {1_000_000, 1_000_000}} {
				v := s.Score(tc[0], tc[1])
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		})
	}
}

func TestBaseline(t *testing.T) {
	assert.InDelta(t, 0.5, Default.Score(0, 0), 1e-12)
	assert.InDelta(t, 2.0/3.0, Default.Score(1, 0), 1e-12)
	assert.Equal(t, 0.0, WilsonLowerBound{Z: 1.96}.Score(0, 0))
	assert.Equal(t, 0.5, BayesianAverage{}.Score(0, 0))
}

func TestStableForLargeCounts(t *testing.T) {
	s := WilsonLowerBound{Z: 1.96}
	a := s.Score(1_000_000, 1_000_000)
	b := s.Score(2_000_000, 2_000_000)
	assert.InDelta(t, 0.5, a, 0.01)
	assert.InDelta(t, a, b, 0.01)
	assert.InDelta(t, 1.0, Default.Score(10_000_000, 0), 1e-6)
}

func TestNew(t *testing.T) {
	s, err := New("", 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Default, s)

	s, err = New(NameWilson, 0, 0, 1.96)
	require.NoError(t, err)
	assert.IsType(t, WilsonLowerBound{}, s)

	_, err = New(NameWilson, 0, 0, 0)
	assert.Error(t, err)
	_, err = New("median", 1, 1, 1)
	assert.Error(t, err)
}
