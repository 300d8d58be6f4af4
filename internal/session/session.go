// Package session composes the recognition pipeline for one frame source:
// normalization, classification, smoothing and dispatch, processed
// synchronously in frame arrival order.
package session

import (
	"time"

	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/smoother"
)

// DefaultDetectionThreshold is the minimum smoothed confidence required
// before a gesture may dispatch its action.
const DefaultDetectionThreshold = 0.7

// Config holds per-session configuration. The Classifier may be shared
// between sessions; everything else is owned by this session alone.
type Config struct {
	// Classifier is the shared, immutable-after-load classifier. Required.
	Classifier *classifier.Classifier

	// Actions maps gesture labels to plugin actions.
	Actions dispatch.ActionMap

	// RotationDegrees corrects a fixed mismatch between the camera mount
	// and the orientation the model was trained with (e.g. -90 for a
	// sensor rotated a quarter turn). Zero means no correction.
	RotationDegrees int

	// DetectionThreshold gates dispatch on smoothed confidence.
	// Non-positive values fall back to DefaultDetectionThreshold.
	DetectionThreshold float64

	// Cooldown is the minimum re-fire interval per gesture.
	// Non-positive values fall back to dispatch.DefaultCooldown.
	Cooldown time.Duration

	// WindowSize, Majority and MinConfidence tune the smoother; zero
	// values fall back to the smoother package defaults.
	WindowSize    int
	Majority      float64
	MinConfidence float64

	// ResetCooldownOnRestart also clears dispatch state on Reset. By
	// default only the vote window is cleared, so a camera rebind cannot
	// immediately re-fire the gesture that just fired.
	ResetCooldownOnRestart bool
}

// Session runs the pipeline for one frame source. It is synchronous and
// single-threaded: one frame is processed to completion before the next.
// Not safe for concurrent use; run one Session per goroutine.
type Session struct {
	classifier *classifier.Classifier
	smoother   *smoother.Smoother
	policy     *dispatch.Policy
	config     Config
	threshold  float64
	last       classifier.Result

	now func() time.Time
}

// New creates a Session from the given configuration.
func New(config Config) *Session {
	threshold := config.DetectionThreshold
	if threshold <= 0 {
		threshold = DefaultDetectionThreshold
	}

	return &Session{
		classifier: config.Classifier,
		smoother:   smoother.New(config.WindowSize, config.Majority, config.MinConfidence),
		policy:     dispatch.NewPolicy(config.Actions, config.Cooldown),
		config:     config,
		threshold:  threshold,
		now:        time.Now,
	}
}

// ProcessLandmarks runs one frame's landmarks through the pipeline and
// returns an action event when a stable gesture should fire, nil otherwise.
//
// An empty landmark set is the valid "no hand this frame" condition: the
// pipeline short-circuits without classifying and without touching the
// vote window.
func (s *Session) ProcessLandmarks(points []detector.Point3D) *dispatch.Event {
	if len(points) == 0 {
		return nil
	}

	vector := feature.Flatten(points, detector.NumLandmarks)
	vector = feature.Rotate(vector, s.config.RotationDegrees)

	raw := s.classifier.Classify(vector)
	smoothed := s.smoother.Observe(raw)
	s.last = smoothed

	return s.policy.Decide(smoothed.Label, smoothed.Confidence, s.threshold, s.now())
}

// LastResult returns the most recent smoothed (label, confidence) pair for
// UI feedback, independent of dispatch decisions.
func (s *Session) LastResult() classifier.Result {
	return s.last
}

// SetDetectionThreshold updates the dispatch confidence gate.
func (s *Session) SetDetectionThreshold(threshold float64) {
	if threshold > 0 {
		s.threshold = threshold
	}
}

// Reset clears the smoothing window for a frame source restart. Dispatch
// state is preserved unless the session was configured with
// ResetCooldownOnRestart.
func (s *Session) Reset() {
	s.smoother.Reset()
	s.last = classifier.Result{}
	if s.config.ResetCooldownOnRestart {
		s.policy.Reset()
	}
}
