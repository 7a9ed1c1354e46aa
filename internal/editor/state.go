package editor

import (
	"context"
	"errors"
	"sync"
)

// ErrSaveInProgress is returned when a save starts while another is running.
var ErrSaveInProgress = errors.New("a save is already in progress")

// SaveState is the phase of a save or upload.
type SaveState string

const (
	StateIdle       SaveState = "idle"
	StateSubmitting SaveState = "submitting"
)

// Outcome describes how the last submission ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSucceeded Outcome = "success"
	OutcomeFailed    Outcome = "failed"
)

// SaveTracker implements idle -> submitting -> {success, failed} -> idle.
// There is no retry or queue; a failed submission just returns to idle with
// a message and the caller's state is left as it was.
type SaveTracker struct {
	mu      sync.Mutex
	state   SaveState
	outcome Outcome
	message string
}

// State returns the current phase, the last outcome and its message.
func (t *SaveTracker) State() (SaveState, Outcome, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentState(), t.outcome, t.message
}

func (t *SaveTracker) currentState() SaveState {
	if t.state == "" {
		return StateIdle
	}
	return t.state
}

// Begin moves idle -> submitting.
func (t *SaveTracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentState() == StateSubmitting {
		return ErrSaveInProgress
	}
	t.state = StateSubmitting
	t.outcome = OutcomeNone
	t.message = ""
	return nil
}

// Finish moves submitting -> idle, recording the outcome of err.
func (t *SaveTracker) Finish(err error, successMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	if err != nil {
		t.outcome = OutcomeFailed
		t.message = err.Error()
		return
	}
	t.outcome = OutcomeSucceeded
	t.message = successMessage
}

// Run wraps fn in Begin/Finish.
func (t *SaveTracker) Run(ctx context.Context, successMessage string, fn func(context.Context) error) error {
	if err := t.Begin(); err != nil {
		return err
	}
	err := fn(ctx)
	t.Finish(err, successMessage)
	return err
}
