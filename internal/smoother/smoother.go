// Package smoother stabilizes noisy per-frame classifications into a
// steady gesture signal using a majority-vote window.
package smoother

import (
	"github.com/ayusman/mudra/internal/classifier"
)

// Default smoothing parameters.
const (
	// DefaultWindowSize is the number of recent frames considered.
	DefaultWindowSize = 10
	// DefaultMajority is the fraction of the window a label must hold.
	DefaultMajority = 0.6
	// DefaultMinConfidence is the per-frame confidence floor. Frames below
	// it count as "no gesture" votes, not as votes for their label.
	DefaultMinConfidence = 0.5
)

// Smoother maintains a bounded FIFO of recent classification results and
// emits a decision only when one label holds a clear majority. It is owned
// by exactly one session and is not safe for concurrent use.
type Smoother struct {
	window        []classifier.Result
	size          int
	majority      float64
	minConfidence float64
}

// New creates a Smoother. Non-positive or out-of-range arguments fall back
// to the package defaults.
func New(size int, majority, minConfidence float64) *Smoother {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if majority <= 0 || majority > 1 {
		majority = DefaultMajority
	}
	if minConfidence < 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}

	return &Smoother{
		window:        make([]classifier.Result, 0, size),
		size:          size,
		majority:      majority,
		minConfidence: minConfidence,
	}
}

// Observe records one per-frame result and returns the smoothed decision.
//
// Low-confidence frames are demoted to empty votes before entering the
// window. Until the window holds at least half its capacity (rounded up),
// the smoother is warming up and returns the empty sentinel. A label wins
// only when its vote count, measured against the full window length
// including empty votes, reaches the majority threshold; the returned
// confidence is the mean confidence of the winning label's votes. Ties
// between equal counts go to the lexicographically smallest label.
func (s *Smoother) Observe(raw classifier.Result) classifier.Result {
	vote := raw
	if raw.Confidence < s.minConfidence {
		vote = classifier.Result{}
	}

	if len(s.window) >= s.size {
		// FIFO eviction: shift left, dropping the oldest vote.
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, vote)

	if len(s.window) < (s.size+1)/2 {
		return classifier.Result{}
	}

	counts := make(map[string]int)
	sums := make(map[string]float64)
	for _, v := range s.window {
		if v.Empty() {
			continue
		}
		counts[v.Label]++
		sums[v.Label] += v.Confidence
	}

	if len(counts) == 0 {
		return classifier.Result{}
	}

	var topLabel string
	topCount := -1
	for label, count := range counts {
		if count > topCount || (count == topCount && label < topLabel) {
			topLabel = label
			topCount = count
		}
	}

	agreement := float64(topCount) / float64(len(s.window))
	if agreement < s.majority {
		return classifier.Result{}
	}

	return classifier.Result{
		Label:      topLabel,
		Confidence: sums[topLabel] / float64(topCount),
	}
}

// Reset clears the vote window. Call it whenever the upstream frame source
// restarts so stale votes cannot bias a new session's first decisions.
func (s *Smoother) Reset() {
	s.window = s.window[:0]
}

// Len returns the current number of votes in the window.
func (s *Smoother) Len() int {
	return len(s.window)
}
