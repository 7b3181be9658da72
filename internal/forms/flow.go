package forms

import (
	"context"
	"errors"
	"sync"
)

// State is the submission flow's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ErrSubmissionInFlight is returned when Submit is called while an earlier
// submission has not finished; the triggering control stays disabled for
// exactly that window.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// Flow drives the shared form lifecycle:
// Idle → Validating → (Invalid → Idle) | (Valid → Submitting) →
// (Succeeded) | (Failed → Idle). After any failure the flow is back in a
// re-submittable state.
type Flow struct {
	mu    sync.Mutex
	state State
	busy  bool
}

// NewFlow returns an idle flow.
func NewFlow() *Flow {
	return &Flow{state: StateIdle}
}

// State returns the current lifecycle position.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates then submits. When validate returns a FieldError the
// submission is blocked with no network call and the flow returns to Idle.
// A submit error also returns the flow to Idle so retry is always possible.
func (f *Flow) Submit(ctx context.Context, validate func() *FieldError, submit func(ctx context.Context) error) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	f.busy = true
	f.state = StateValidating
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	if fieldErr := validate(); fieldErr != nil {
		f.setState(StateIdle)
		return fieldErr
	}

	f.setState(StateSubmitting)
	if err := submit(ctx); err != nil {
		f.setState(StateIdle)
		return err
	}

	f.setState(StateSucceeded)
	return nil
}

// Reset returns a finished flow to Idle, e.g. after the UI has closed the
// modal or cleared the form.
func (f *Flow) Reset() {
	f.setState(StateIdle)
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
