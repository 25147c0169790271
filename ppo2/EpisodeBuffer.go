package ppo2

import (
	"math"

	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/stat"
)

// EpisodeBufferSize is the number of recent episodes reported on
const EpisodeBufferSize = 100

// EpisodeBuffer holds the most recently completed episodes, up to a
// fixed capacity
type EpisodeBuffer struct {
	episodes []env.EpisodeInfo
	next     int
	capacity int
}

// NewEpisodeBuffer returns a new EpisodeBuffer holding at most
// capacity episodes
func NewEpisodeBuffer(capacity int) *EpisodeBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &EpisodeBuffer{
		episodes: make([]env.EpisodeInfo, 0, capacity),
		capacity: capacity,
	}
}

// Extend adds episodes to the buffer, evicting the oldest episodes
// when the buffer is full
func (e *EpisodeBuffer) Extend(episodes ...env.EpisodeInfo) {
	for _, ep := range episodes {
		if len(e.episodes) < e.capacity {
			e.episodes = append(e.episodes, ep)
		} else {
			e.episodes[e.next] = ep
		}
		e.next = (e.next + 1) % e.capacity
	}
}

// Len returns the number of episodes in the buffer
func (e *EpisodeBuffer) Len() int {
	return len(e.episodes)
}

// MeanReturn returns the mean return of the episodes in the buffer,
// or NaN if the buffer is empty
func (e *EpisodeBuffer) MeanReturn() float64 {
	returns := make([]float64, len(e.episodes))
	for i, ep := range e.episodes {
		returns[i] = ep.Return
	}
	return SafeMean(returns)
}

// MeanLength returns the mean length of the episodes in the buffer,
// or NaN if the buffer is empty
func (e *EpisodeBuffer) MeanLength() float64 {
	lengths := make([]float64, len(e.episodes))
	for i, ep := range e.episodes {
		lengths[i] = float64(ep.Length)
	}
	return SafeMean(lengths)
}

// SafeMean returns the mean of x, or NaN if x is empty
func SafeMean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// ExplainedVariance returns 1 - Var[y - ypred] / Var[y], the fraction
// of the variance of y explained by ypred. A value of 1 is a perfect
// prediction, and a value of 0 is no better than predicting the mean.
// If y has zero variance, NaN is returned.
func ExplainedVariance(ypred, y []float64) float64 {
	vary := stat.PopVariance(y, nil)
	if vary == 0 {
		return math.NaN()
	}

	diff := make([]float64, len(y))
	for i := range y {
		diff[i] = y[i] - ypred[i]
	}
	return 1 - stat.PopVariance(diff, nil)/vary
}
