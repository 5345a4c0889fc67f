package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CheckFormMessage is shown when values fail validation.
const CheckFormMessage = "Please check your form"

var (
	// ErrSubmitInFlight is returned when Submit is called while another
	// submission has not finished.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrSubmitFailed wraps a failed submission's user-facing message.
	ErrSubmitFailed = errors.New("submission failed")
	// ErrRedirected is returned when the server turned the submission away
	// with a route to visit instead, such as the rate-limit page.
	ErrRedirected = errors.New("submission redirected")
)

// State is the submission lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateNavigating
)

// Outcome is what a server action reports back.
type Outcome struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// SubmitFunc sends validated values to the server.
type SubmitFunc[T any] func(ctx context.Context, values T) (Outcome, error)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

// Options configures a Form.
type Options struct {
	Notifier  Notifier
	Navigator Navigator
	// Delay separates the success message from navigation. Defaults to one second.
	Delay time.Duration
	// Landing is the route visited after success when the server names none.
	Landing string
}

// Form runs one auth form's submissions.
type Form[T any] struct {
	kind      Type
	copy      Copy
	submit    SubmitFunc[T]
	validator *Validator
	notify    Notifier
	navigate  Navigator
	delay     time.Duration
	landing   string

	mu     sync.Mutex
	state  State
	values T
	errs   map[string]string
}

// New builds a form of the given type.
func New[T any](kind Type, submit SubmitFunc[T], opts Options) *Form[T] {
	f := &Form[T]{
		kind:      kind,
		copy:      CopyFor(kind),
		submit:    submit,
		validator: NewValidator(),
		notify:    opts.Notifier,
		navigate:  opts.Navigator,
		delay:     opts.Delay,
		landing:   opts.Landing,
	}
	if f.notify == nil {
		f.notify = nopNotifier{}
	}
	if f.navigate == nil {
		f.navigate = nopNavigator{}
	}
	if f.delay == 0 {
		f.delay = time.Second
	}
	if f.landing == "" {
		f.landing = "/"
	}
	return f
}

// Fields returns the inputs this form renders.
func (f *Form[T]) Fields() []Field { return Fields(f.kind) }

// Submit validates values and, if they pass, calls the submit function once.
// On success it notifies, waits for the configured delay and navigates. A
// failed outcome that names a redirect navigates there at once, without an
// error message.
func (f *Form[T]) Submit(ctx context.Context, values T) error {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.state = StateSubmitting
	f.values = values
	f.errs = nil
	f.mu.Unlock()

	if err := f.validator.Validate(values); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			f.setErrors(verr.Fields)
		}
		f.notify.Error(CheckFormMessage)
		f.setState(StateIdle)
		return err
	}

	out, err := f.call(ctx, values)
	if err == nil && !out.Success && out.Redirect != "" {
		f.setState(StateNavigating)
		f.navigate.Navigate(out.Redirect)
		return fmt.Errorf("%w to %s", ErrRedirected, out.Redirect)
	}
	if err != nil || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = f.copy.Failure
		}
		f.notify.Error(msg)
		f.setState(StateIdle)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSubmitFailed, msg, err)
		}
		return fmt.Errorf("%w: %s", ErrSubmitFailed, msg)
	}

	f.setState(StateSuccess)
	f.notify.Success(f.copy.Success)

	timer := time.NewTimer(f.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		f.setState(StateIdle)
		return ctx.Err()
	case <-timer.C:
	}

	route := out.Redirect
	if route == "" {
		route = f.landing
	}
	f.setState(StateNavigating)
	f.navigate.Navigate(route)
	return nil
}

func (f *Form[T]) call(ctx context.Context, values T) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit panicked: %v", r)
		}
	}()
	return f.submit(ctx, values)
}

func (f *Form[T]) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Form[T]) setErrors(errs map[string]string) {
	f.mu.Lock()
	f.errs = errs
	f.mu.Unlock()
}

// State returns the current state.
func (f *Form[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a submission is in flight.
func (f *Form[T]) Busy() bool {
	return f.State() == StateSubmitting
}

// Values returns the most recently submitted values.
func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns per-field validation messages from the last submit.
func (f *Form[T]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}
