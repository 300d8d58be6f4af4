// Package classifier maps feature vectors to gesture labels using a
// pre-trained model with lazily loaded, immutable-after-load state.
package classifier

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// Result is a (label, confidence) classification outcome. The zero value is
// the canonical "no confident gesture" sentinel: an empty label always
// carries confidence 0.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Empty reports whether the result is the no-gesture sentinel.
func (r Result) Empty() bool {
	return r.Label == ""
}

// State is the classifier's initialization state.
type State int32

const (
	// StateUninitialized means no load has been requested yet.
	StateUninitialized State = iota
	// StatePending means a load is in flight.
	StatePending
	// StateReady means model and labels are loaded; terminal.
	StateReady
	// StateFailed means the load failed; terminal for the process lifetime.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Loader supplies the model and label resources. Load mechanics are the
// classifier's only asynchronous boundary.
type Loader interface {
	LoadModel() (*Model, error)
	LoadLabels() (*LabelConfig, error)
}

// FileLoader loads model and label resources from the filesystem.
type FileLoader struct {
	ModelPath  string
	LabelsPath string
}

// LoadModel reads and parses the model artifact.
func (l FileLoader) LoadModel() (*Model, error) {
	data, err := os.ReadFile(l.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(data)
}

// LoadLabels reads and parses the label resource.
func (l FileLoader) LoadLabels() (*LabelConfig, error) {
	data, err := os.ReadFile(l.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return ParseLabelConfig(data)
}

// StaticLoader serves pre-built resources. Used by tests and by callers
// that already hold the parsed artifacts.
type StaticLoader struct {
	Model  *Model
	Labels *LabelConfig
	Err    error
}

// LoadModel returns the pre-built model or the configured error.
func (l StaticLoader) LoadModel() (*Model, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Model, nil
}

// LoadLabels returns the pre-built label config or the configured error.
func (l StaticLoader) LoadLabels() (*LabelConfig, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Labels, nil
}

// Classifier holds the loaded model, labels and normalization parameters.
// The loaded state is written exactly once, before the state flips to
// StateReady, and is read-only afterwards, so concurrent Classify calls
// from multiple sessions are safe without locking.
type Classifier struct {
	loader Loader

	// mu guards only the Uninitialized -> Pending transition so that
	// exactly one load attempt runs under concurrent first use.
	mu    sync.Mutex
	state atomic.Int32

	model  *Model
	labels []string
	mean   []float64
	std    []float64
}

// New creates a Classifier that loads its resources on first use.
func New(loader Loader) *Classifier {
	return &Classifier{loader: loader}
}

// State returns the current initialization state.
func (c *Classifier) State() State {
	return State(c.state.Load())
}

// Ready reports whether the classifier can produce real classifications.
func (c *Classifier) Ready() bool {
	return c.State() == StateReady
}

// Labels returns the loaded label list, or nil before StateReady.
func (c *Classifier) Labels() []string {
	if !c.Ready() {
		return nil
	}
	return c.labels
}

// Classify maps a feature vector to the most probable gesture label.
//
// If the classifier is not ready, it kicks off initialization when needed
// and returns the empty sentinel immediately; it never blocks on loading.
// Short inputs are zero-padded to the model's input width before
// normalization and extra values are ignored. Inference faults degrade to
// the empty sentinel rather than interrupting the frame loop.
func (c *Classifier) Classify(features []float64) Result {
	switch c.State() {
	case StateReady:
		return c.infer(features)
	case StateUninitialized:
		c.requestLoad()
		return Result{}
	default: // pending or failed
		return Result{}
	}
}

// requestLoad starts the one-time background load if nobody else has.
func (c *Classifier) requestLoad() {
	c.mu.Lock()
	if State(c.state.Load()) != StateUninitialized {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(StatePending))
	c.mu.Unlock()

	go c.load()
}

// load materializes the model and labels. Both terminal states are sticky:
// a failed load is permanent for this classifier's lifetime.
func (c *Classifier) load() {
	model, err := c.loader.LoadModel()
	if err != nil {
		log.Printf("classifier: model load failed: %v", err)
		c.state.Store(int32(StateFailed))
		return
	}

	labelConfig, err := c.loader.LoadLabels()
	if err != nil {
		log.Printf("classifier: label load failed: %v", err)
		c.state.Store(int32(StateFailed))
		return
	}

	c.model = model
	c.labels = labelConfig.ClassNames
	c.mean = labelConfig.FeatureMean
	c.std = labelConfig.FeatureStd

	c.state.Store(int32(StateReady))
	log.Printf("classifier: ready (%d labels, input width %d)", len(c.labels), model.InputWidth())
}

func (c *Classifier) infer(features []float64) Result {
	width := c.model.InputWidth()

	// Pad short vectors with raw zeros; drop extra values.
	input := make([]float64, width)
	copy(input, features)

	for i := range input {
		if i < len(c.std) && c.std[i] != 0 {
			input[i] = (input[i] - c.mean[i]) / c.std[i]
		}
	}

	probs, err := c.model.Infer(input)
	if err != nil {
		log.Printf("classifier: inference failed: %v", err)
		return Result{}
	}

	if len(probs) == 0 {
		return Result{}
	}

	// Argmax with first occurrence winning ties.
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	if best >= len(c.labels) {
		return Result{}
	}

	return Result{Label: c.labels[best], Confidence: probs[best]}
}
