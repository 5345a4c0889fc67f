package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notes struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *notes) Success(msg string) { n.mu.Lock(); n.successes = append(n.successes, msg); n.mu.Unlock() }
func (n *notes) Error(msg string)   { n.mu.Lock(); n.errors = append(n.errors, msg); n.mu.Unlock() }

type routes struct{ visited []string }

func (r *routes) Navigate(route string) { r.visited = append(r.visited, route) }

func validSignIn() SignInValues {
	return SignInValues{Email: "ada@uni.edu", Password: "correct-horse"}
}

func TestFieldsForForms(t *testing.T) {
	names := func(fs []Field) []string {
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			out = append(out, f.Name)
		}
		return out
	}
	assert.Equal(t, []string{"email", "password"}, names(Fields(SignIn)))
	assert.Equal(t, []string{"fullName", "email", "universityId", "password", "universityCard"}, names(Fields(SignUp)))

	up := Fields(SignUp)
	assert.Equal(t, "University ID Number", up[2].Label)
	assert.Equal(t, KindImage, up[4].Kind)
	assert.Equal(t, "Enter Full name", up[0].Placeholder())
}

func TestSubmitSuccessNavigatesAfterDelay(t *testing.T) {
	n, r := &notes{}, &routes{}
	calls := 0
	f := New[SignInValues](SignIn, func(_ context.Context, v SignInValues) (Outcome, error) {
		calls++
		return Outcome{Success: true}, nil
	}, Options{Notifier: n, Navigator: r, Delay: 10 * time.Millisecond})

	start := time.Now()
	require.NoError(t, f.Submit(context.Background(), validSignIn()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"/"}, r.visited)
	assert.Equal(t, []string{"You have successfully signed in."}, n.successes)
	assert.Equal(t, StateNavigating, f.State())
}

func TestSubmitServerErrorKeepsValues(t *testing.T) {
	n, r := &notes{}, &routes{}
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		return Outcome{Success: false, Error: "Invalid email or password"}, nil
	}, Options{Notifier: n, Navigator: r})

	err := f.Submit(context.Background(), validSignIn())
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, []string{"Invalid email or password"}, n.errors)
	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, validSignIn(), f.Values())
	assert.Empty(t, r.visited)
}

func TestSubmitFallbackMessage(t *testing.T) {
	n := &notes{}
	f := New[SignUpValues](SignUp, func(context.Context, SignUpValues) (Outcome, error) {
		return Outcome{}, errors.New("connection reset")
	}, Options{Notifier: n})

	err := f.Submit(context.Background(), SignUpValues{
		FullName: "Ada Lovelace", Email: "ada@uni.edu", UniversityID: 42,
		Password: "correct-horse", UniversityCard: "https://cdn.example/card.png",
	})
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, []string{"Error signing up"}, n.errors)
}

func TestSubmitPanicIsContained(t *testing.T) {
	n := &notes{}
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		panic("boom")
	}, Options{Notifier: n})

	err := f.Submit(context.Background(), validSignIn())
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, StateIdle, f.State())
}

func TestValidationFailureNeverSubmits(t *testing.T) {
	n := &notes{}
	calls := 0
	f := New[SignUpValues](SignUp, func(context.Context, SignUpValues) (Outcome, error) {
		calls++
		return Outcome{Success: true}, nil
	}, Options{Notifier: n})

	err := f.Submit(context.Background(), SignUpValues{Email: "not-an-email", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, calls)
	assert.Equal(t, []string{CheckFormMessage}, n.errors)
	assert.Equal(t, StateIdle, f.State())

	errs := f.Errors()
	assert.Equal(t, "Invalid email address", errs["email"])
	assert.Equal(t, "Password must be at least 8 characters", errs["password"])
	assert.Equal(t, "University ID Number is required", errs["universityId"])
	assert.Contains(t, errs, "universityCard")
}

func TestSubmitGuardRejectsConcurrentSubmit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		close(entered)
		<-release
		return Outcome{Success: false, Error: "nope"}, nil
	}, Options{})

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background(), validSignIn()) }()

	<-entered
	assert.True(t, f.Busy())
	assert.ErrorIs(t, f.Submit(context.Background(), validSignIn()), ErrSubmitInFlight)

	close(release)
	require.ErrorIs(t, <-done, ErrSubmitFailed)
	assert.False(t, f.Busy())
}

func TestSubmitUsesServerRedirect(t *testing.T) {
	r := &routes{}
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		return Outcome{Success: true, Redirect: "/my-profile"}, nil
	}, Options{Navigator: r, Delay: time.Millisecond})

	require.NoError(t, f.Submit(context.Background(), validSignIn()))
	assert.Equal(t, []string{"/my-profile"}, r.visited)
	assert.ErrorIs(t, f.Submit(context.Background(), validSignIn()), ErrSubmitInFlight)
}

func TestSubmitThrottledRedirectsWithoutError(t *testing.T) {
	n, r := &notes{}, &routes{}
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		return Outcome{Success: false, Redirect: "/too-fast"}, nil
	}, Options{Notifier: n, Navigator: r, Delay: time.Hour})

	err := f.Submit(context.Background(), validSignIn())
	require.ErrorIs(t, err, ErrRedirected)
	assert.NotErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, []string{"/too-fast"}, r.visited)
	assert.Empty(t, n.errors)
	assert.Empty(t, n.successes)
	assert.Equal(t, StateNavigating, f.State())
}

func TestSubmitCancelledDuringDelayReturnsToIdle(t *testing.T) {
	r := &routes{}
	ctx, cancel := context.WithCancel(context.Background())
	f := New[SignInValues](SignIn, func(context.Context, SignInValues) (Outcome, error) {
		cancel()
		return Outcome{Success: true}, nil
	}, Options{Navigator: r, Delay: time.Hour})

	err := f.Submit(ctx, validSignIn())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.visited)
	assert.Equal(t, StateIdle, f.State())
	assert.False(t, f.Busy())
}
