// Package dispatch turns stable gesture decisions into action events,
// suppressing repeat firing with a cooldown and change detection.
package dispatch

import (
	"strings"
	"time"
)

// DefaultCooldown is the minimum interval before the same gesture may
// re-fire its action.
const DefaultCooldown = 5 * time.Second

// Action identifies a plugin action bound to a gesture. The zero value is
// the no-op action: gestures resolving to it never dispatch.
type Action struct {
	Plugin string `json:"plugin"`
	Name   string `json:"name"`
}

// IsNoop reports whether the action is the designated no-op.
func (a Action) IsNoop() bool {
	return a.Plugin == "" && a.Name == ""
}

// Event is a fired action, handed to the external action executor.
type Event struct {
	Action     Action    `json:"action"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`
}

// ActionMap resolves normalized gesture labels to actions.
type ActionMap map[string]Action

// NewActionMap builds an ActionMap with normalized keys.
func NewActionMap(bindings map[string]Action) ActionMap {
	m := make(ActionMap, len(bindings))
	for label, action := range bindings {
		m[normalizeLabel(label)] = action
	}
	return m
}

// Resolve looks up the action for a label. Unknown labels resolve to the
// no-op action, never an error.
func (m ActionMap) Resolve(label string) Action {
	return m[normalizeLabel(label)]
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Policy decides when a stable gesture fires its action. A given gesture
// fires at most once per cooldown window, but a change to a different
// gesture fires immediately, so switching gestures stays responsive while
// holding one gesture cannot spam its action. Owned by exactly one session.
type Policy struct {
	actions      ActionMap
	cooldown     time.Duration
	lastLabel    string
	lastDispatch time.Time
}

// NewPolicy creates a Policy over the given action map. A non-positive
// cooldown falls back to DefaultCooldown.
func NewPolicy(actions ActionMap, cooldown time.Duration) *Policy {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Policy{
		actions:  actions,
		cooldown: cooldown,
	}
}

// Decide returns an Event if the gesture should fire now, nil otherwise.
//
// Nothing fires for the empty label, for confidence below the detection
// threshold, or for labels bound to the no-op action. Otherwise the event
// fires when the label differs from the last dispatched one or the
// cooldown has expired; only a successful dispatch mutates policy state.
func (p *Policy) Decide(label string, confidence, threshold float64, now time.Time) *Event {
	if label == "" || confidence < threshold {
		return nil
	}

	action := p.actions.Resolve(label)
	if action.IsNoop() {
		return nil
	}

	isNewLabel := label != p.lastLabel
	cooldownExpired := p.lastDispatch.IsZero() || now.Sub(p.lastDispatch) >= p.cooldown
	if !isNewLabel && !cooldownExpired {
		return nil
	}

	p.lastLabel = label
	p.lastDispatch = now

	return &Event{
		Action:     action,
		Label:      label,
		Confidence: confidence,
		Time:       now,
	}
}

// LastLabel returns the most recently dispatched label, or "" if none.
func (p *Policy) LastLabel() string {
	return p.lastLabel
}

// Reset clears the dispatch state, allowing any gesture to fire
// immediately. Only an explicit external reset should call this; a normal
// session restart preserves the cooldown.
func (p *Policy) Reset() {
	p.lastLabel = ""
	p.lastDispatch = time.Time{}
}
