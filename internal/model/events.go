package model

import "time"

// FailureKind classifies why a public operation failed.
type FailureKind string

const (
	FailureNone                 FailureKind = ""
	FailureInvalidInput         FailureKind = "invalid_input"
	FailureIncompatibleBreeding FailureKind = "incompatible_breeding"
	FailureNotInitialized       FailureKind = "not_initialized"
	FailureInternal             FailureKind = "internal_failure"
)

// Event is the side-channel notification raised by engines for observability
// collaborators. Events fire on success and failure paths alike.
type Event struct {
	Kind       string      `json:"kind"`
	GenotypeID string      `json:"genotype_id,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Failure    FailureKind `json:"failure,omitempty"`
	At         time.Time   `json:"at"`
}

// Observer receives engine events. Each engine instance holds the observer
// injected by the orchestrator; there is no process-wide broadcast.
type Observer interface {
	Notify(Event)
}

// Emit sends an event to obs if it is non-nil.
func Emit(obs Observer, ev Event) {
	if obs == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	obs.Notify(ev)
}
