package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-wise/book_wise/internal/identity"
	"github.com/book-wise/book_wise/internal/logging"
	"github.com/book-wise/book_wise/internal/ratelimit"
	"github.com/book-wise/book_wise/internal/session"
	"github.com/book-wise/book_wise/internal/workflow"
)

type countingRepo struct {
	identity.Repository
	reads, writes atomic.Int32
	createErr     error
}

func (r *countingRepo) Create(ctx context.Context, u identity.User) error {
	r.writes.Add(1)
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repository.Create(ctx, u)
}

func (r *countingRepo) FindByEmail(ctx context.Context, email string) (identity.User, error) {
	r.reads.Add(1)
	return r.Repository.FindByEmail(ctx, email)
}

type denyLimiter struct{}

func (denyLimiter) Limit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: false}, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Limit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

type fakeTrigger struct {
	reqs []workflow.Request
	err  error
}

func (f *fakeTrigger) Trigger(_ context.Context, req workflow.Request) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

type fixture struct {
	svc      *Service
	repo     *countingRepo
	trigger  *fakeTrigger
	sessions session.Store
	provider *session.Provider
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	repo := &countingRepo{Repository: identity.NewMemoryRepository()}
	users := identity.NewService(repo, identity.BcryptHasher{Cost: 4})
	store := session.NewMemoryStore()
	provider := session.NewProvider(users, store, "test-secret", time.Hour)
	trigger := &fakeTrigger{}
	svc := NewService(Deps{
		Users:         users,
		Limiter:       limiter,
		Sessions:      provider,
		Workflow:      trigger,
		OnboardingURL: "https://bookwise.example/api/workflows/onboarding",
		Logger:        logging.Discard(),
	})
	return &fixture{svc: svc, repo: repo, trigger: trigger, sessions: store, provider: provider}
}

func ada() identity.NewUser {
	return identity.NewUser{
		FullName:       "Ada Lovelace",
		Email:          "ada@uni.edu",
		UniversityID:   4242,
		Password:       "correct-horse",
		UniversityCard: "https://ik.imagekit.io/bookwise/ada.png",
	}
}

var caller1 = Caller{IP: "203.0.113.7", UserAgent: "test"}

func TestSignUpThenSignIn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.svc.SignUp(ctx, caller1, ada())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, RouteHome, res.Redirect)
	require.NotNil(t, res.Session)
	assert.NotEmpty(t, res.Token)

	again := f.svc.SignInWithCredentials(ctx, caller1, "ada@uni.edu", "correct-horse")
	assert.True(t, again.Success)
	assert.Empty(t, again.Error)

	require.Len(t, f.trigger.reqs, 1)
	assert.Equal(t, "https://bookwise.example/api/workflows/onboarding", f.trigger.reqs[0].URL)
	assert.Equal(t, workflow.OnboardingPayload{Email: "ada@uni.edu", FullName: "Ada Lovelace"}, f.trigger.reqs[0].Body)
}

func TestSignUpExistingEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.True(t, f.svc.SignUp(ctx, caller1, ada()).Success)

	dup := ada()
	dup.Email = " ADA@uni.edu "
	res := f.svc.SignUp(ctx, caller1, dup)
	assert.False(t, res.Success)
	assert.Equal(t, MsgUserExists, res.Error)
	assert.Equal(t, int32(1), f.repo.writes.Load())
}

func TestSignUpStoresHashOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.True(t, f.svc.SignUp(ctx, caller1, ada()).Success)

	stored, err := f.repo.Repository.FindByEmail(ctx, "ada@uni.edu")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRateLimitedActionsTouchNothing(t *testing.T) {
	f := newFixture(t, denyLimiter{})
	ctx := context.Background()

	res := f.svc.SignUp(ctx, caller1, ada())
	assert.False(t, res.Success)
	assert.Equal(t, RouteTooFast, res.Redirect)

	res = f.svc.SignInWithCredentials(ctx, caller1, "ada@uni.edu", "correct-horse")
	assert.Equal(t, RouteTooFast, res.Redirect)

	assert.Zero(t, f.repo.reads.Load())
	assert.Zero(t, f.repo.writes.Load())
	assert.Empty(t, f.trigger.reqs)
}

func TestLimiterOutageFailsOpen(t *testing.T) {
	f := newFixture(t, brokenLimiter{})
	res := f.svc.SignUp(context.Background(), caller1, ada())
	assert.True(t, res.Success, res.Error)
}

func TestWorkflowFailureDoesNotBlockSignUp(t *testing.T) {
	f := newFixture(t, nil)
	f.trigger.err = errors.New("qstash unavailable")

	res := f.svc.SignUp(context.Background(), caller1, ada())
	assert.True(t, res.Success)
	assert.Equal(t, RouteHome, res.Redirect)
	assert.NotNil(t, res.Session)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.True(t, f.svc.SignUp(ctx, caller1, ada()).Success)

	res := f.svc.SignInWithCredentials(ctx, caller1, "ada@uni.edu", "wrong-horse")
	assert.False(t, res.Success)
	assert.Equal(t, session.CredentialsSignin.Message, res.Error)
	assert.Nil(t, res.Session)
	assert.Empty(t, res.Token)
}

func TestSignUpInsertFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.createErr = errors.New("connection refused")

	res := f.svc.SignUp(context.Background(), caller1, ada())
	assert.False(t, res.Success)
	assert.Equal(t, MsgRegistrationFailed, res.Error)
	assert.Empty(t, f.trigger.reqs)
}

type failingSessions struct{ Sessions }

func (failingSessions) SignIn(context.Context, session.Credentials) (session.Session, string, error) {
	return session.Session{}, "", errors.New("session store down")
}

func TestSignUpAutoLoginFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.deps.Sessions = failingSessions{Sessions: f.provider}

	res := f.svc.SignUp(context.Background(), caller1, ada())
	assert.False(t, res.Success)
	assert.Equal(t, MsgAutoLoginFailed, res.Error)
	assert.Equal(t, int32(1), f.repo.writes.Load())

	res = f.svc.SignInWithCredentials(context.Background(), caller1, "ada@uni.edu", "correct-horse")
	assert.Equal(t, MsgSignInError, res.Error)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.svc.SignUp(ctx, caller1, ada())
	require.True(t, res.Success)

	out := f.svc.SignOut(ctx, res.Session.ID)
	assert.True(t, out.Success)
	assert.Equal(t, RouteSignIn, out.Redirect)

	_, err := f.sessions.Get(ctx, res.Session.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "203.0.113.7", ClientIP("203.0.113.7, 10.0.0.1"))
	assert.Equal(t, "198.51.100.2", ClientIP(" 198.51.100.2 "))
	assert.Equal(t, "127.0.0.1", ClientIP(""))
}

type budgetLimiter struct {
	allow int32
	hits  atomic.Int32
}

func (l *budgetLimiter) Limit(context.Context, string) (ratelimit.Decision, error) {
	n := l.hits.Add(1)
	return ratelimit.Decision{Allowed: n <= l.allow}, nil
}

func TestSignUpAutoLoginConsultsLimiter(t *testing.T) {
	lim := &budgetLimiter{allow: 2}
	f := newFixture(t, lim)

	res := f.svc.SignUp(context.Background(), caller1, ada())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int32(2), lim.hits.Load())
}

func TestSignUpAutoLoginThrottledRedirects(t *testing.T) {
	lim := &budgetLimiter{allow: 1}
	f := newFixture(t, lim)

	res := f.svc.SignUp(context.Background(), caller1, ada())
	assert.False(t, res.Success)
	assert.Equal(t, RouteTooFast, res.Redirect)
	assert.Nil(t, res.Session)
	assert.Equal(t, int32(1), f.repo.writes.Load())
}
