package session

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
)

// testClassifier returns a ready classifier over a single softmax layer
// that routes the first landmark's x, y and z to the labels "like",
// "dislike" and "palm" respectively.
func testClassifier(t *testing.T) *classifier.Classifier {
	t.Helper()

	model, err := classifier.ParseModel([]byte(`{
		"input_size": 3,
		"layers": [{
			"weights": [[10, 0, 0], [0, 10, 0], [0, 0, 10]],
			"bias": [0, 0, 0],
			"activation": "softmax"
		}]
	}`))
	if err != nil {
		t.Fatalf("ParseModel() error = %v", err)
	}

	c := classifier.New(classifier.StaticLoader{
		Model:  model,
		Labels: &classifier.LabelConfig{ClassNames: []string{"like", "dislike", "palm"}},
	})

	c.Classify(nil) // trigger load
	deadline := time.Now().Add(2 * time.Second)
	for !c.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("classifier did not become ready")
		}
		time.Sleep(time.Millisecond)
	}
	return c
}

func testActions() dispatch.ActionMap {
	return dispatch.NewActionMap(map[string]dispatch.Action{
		"like":    {Plugin: "system-control", Name: "volume-up"},
		"dislike": {Plugin: "system-control", Name: "volume-down"},
	})
}

// likePoints and dislikePoints produce dominant first-landmark x and y
// features, which the test classifier maps to "like" and "dislike".
func likePoints() []detector.Point3D    { return []detector.Point3D{{X: 1.0}} }
func dislikePoints() []detector.Point3D { return []detector.Point3D{{Y: 1.0}} }

func newTestSession(t *testing.T, config Config) (*Session, *time.Time) {
	t.Helper()

	if config.Classifier == nil {
		config.Classifier = testClassifier(t)
	}
	if config.Actions == nil {
		config.Actions = testActions()
	}

	s := New(config)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestSession_ZeroLandmarksShortCircuits(t *testing.T) {
	s, _ := newTestSession(t, Config{})

	for i := 0; i < 20; i++ {
		if event := s.ProcessLandmarks(nil); event != nil {
			t.Fatalf("ProcessLandmarks(nil) = %+v, want nil", event)
		}
	}

	// No classification happened: the vote window is untouched.
	if s.smoother.Len() != 0 {
		t.Errorf("window length = %d, want 0", s.smoother.Len())
	}
	if !s.LastResult().Empty() {
		t.Errorf("LastResult() = %+v, want sentinel", s.LastResult())
	}
}

func TestSession_StableGestureFiresOnce(t *testing.T) {
	s, clock := newTestSession(t, Config{Cooldown: 5 * time.Second})

	var events []*dispatch.Event
	for i := 0; i < 20; i++ {
		*clock = clock.Add(66 * time.Millisecond)
		if event := s.ProcessLandmarks(likePoints()); event != nil {
			events = append(events, event)
		}
	}

	if len(events) != 1 {
		t.Fatalf("got %d events for one held gesture, want 1", len(events))
	}
	if events[0].Action.Name != "volume-up" {
		t.Errorf("Action.Name = %q, want %q", events[0].Action.Name, "volume-up")
	}

	// UI feedback keeps reporting the stable gesture even while dispatch
	// is cooling down.
	if s.LastResult().Label != "like" {
		t.Errorf("LastResult().Label = %q, want %q", s.LastResult().Label, "like")
	}
}

func TestSession_WarmUpBeforeFirstDecision(t *testing.T) {
	s, _ := newTestSession(t, Config{})

	// The default window needs ceil(10/2) = 5 frames before deciding.
	for i := 0; i < 4; i++ {
		s.ProcessLandmarks(likePoints())
		if !s.LastResult().Empty() {
			t.Fatalf("frame %d: LastResult() = %+v during warm-up", i+1, s.LastResult())
		}
	}

	s.ProcessLandmarks(likePoints())
	if s.LastResult().Label != "like" {
		t.Errorf("frame 5: LastResult().Label = %q, want %q", s.LastResult().Label, "like")
	}
}

func TestSession_GestureSwitchFiresImmediately(t *testing.T) {
	s, clock := newTestSession(t, Config{Cooldown: 5 * time.Second})

	for i := 0; i < 10; i++ {
		*clock = clock.Add(66 * time.Millisecond)
		s.ProcessLandmarks(likePoints())
	}

	// Switch gestures; once the window flips, the new gesture fires even
	// though the cooldown from the first dispatch has not expired.
	var event *dispatch.Event
	for i := 0; i < 10 && event == nil; i++ {
		*clock = clock.Add(66 * time.Millisecond)
		event = s.ProcessLandmarks(dislikePoints())
	}

	if event == nil {
		t.Fatal("gesture switch produced no event")
	}
	if event.Action.Name != "volume-down" {
		t.Errorf("Action.Name = %q, want %q", event.Action.Name, "volume-down")
	}
}

func TestSession_NotReadyClassifierStaysSilent(t *testing.T) {
	c := classifier.New(classifier.StaticLoader{Err: errors.New("no model")})
	s, _ := newTestSession(t, Config{Classifier: c})

	for i := 0; i < 20; i++ {
		if event := s.ProcessLandmarks(likePoints()); event != nil {
			t.Fatalf("ProcessLandmarks() = %+v with failed classifier, want nil", event)
		}
	}
	if !s.LastResult().Empty() {
		t.Errorf("LastResult() = %+v, want sentinel", s.LastResult())
	}
}

func TestSession_ResetPreservesCooldown(t *testing.T) {
	s, clock := newTestSession(t, Config{Cooldown: time.Hour})

	for i := 0; i < 10; i++ {
		s.ProcessLandmarks(likePoints())
	}

	s.Reset()
	if s.smoother.Len() != 0 {
		t.Fatalf("window length after reset = %d, want 0", s.smoother.Len())
	}

	// The same gesture must not re-fire after a restart: the cooldown
	// survives the reset.
	for i := 0; i < 20; i++ {
		*clock = clock.Add(66 * time.Millisecond)
		if event := s.ProcessLandmarks(likePoints()); event != nil {
			t.Fatalf("ProcessLandmarks() = %+v after reset, want nil", event)
		}
	}
}

func TestSession_ResetCooldownOnRestart(t *testing.T) {
	s, clock := newTestSession(t, Config{Cooldown: time.Hour, ResetCooldownOnRestart: true})

	for i := 0; i < 10; i++ {
		s.ProcessLandmarks(likePoints())
	}

	s.Reset()

	var event *dispatch.Event
	for i := 0; i < 20 && event == nil; i++ {
		*clock = clock.Add(66 * time.Millisecond)
		event = s.ProcessLandmarks(likePoints())
	}
	if event == nil {
		t.Error("expected re-fire after full reset, got none")
	}
}

func TestSession_RotationCorrection(t *testing.T) {
	// A point at (1, 0.5) rotated 90 degrees about the image center lands
	// at (0.5, 1): the dominant feature moves from x to y, so the label
	// flips from "like" to "dislike".
	s, _ := newTestSession(t, Config{RotationDegrees: 90})

	points := []detector.Point3D{{X: 1.0, Y: 0.5}}
	for i := 0; i < 10; i++ {
		s.ProcessLandmarks(points)
	}

	if s.LastResult().Label != "dislike" {
		t.Errorf("LastResult().Label = %q, want %q (rotation applied)", s.LastResult().Label, "dislike")
	}
}

func TestSession_SharedClassifierIndependentState(t *testing.T) {
	c := testClassifier(t)
	s1, clock1 := newTestSession(t, Config{Classifier: c})
	s2, _ := newTestSession(t, Config{Classifier: c})

	for i := 0; i < 10; i++ {
		*clock1 = clock1.Add(66 * time.Millisecond)
		s1.ProcessLandmarks(likePoints())
	}

	// Session 2 saw no frames; its window and dispatch state are its own.
	if s2.smoother.Len() != 0 {
		t.Errorf("session 2 window length = %d, want 0", s2.smoother.Len())
	}
	if s1.LastResult().Label != "like" {
		t.Errorf("session 1 LastResult().Label = %q, want %q", s1.LastResult().Label, "like")
	}
	if !s2.LastResult().Empty() {
		t.Errorf("session 2 LastResult() = %+v, want sentinel", s2.LastResult())
	}
}
