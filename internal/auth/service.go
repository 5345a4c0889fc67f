package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/book-wise/book_wise/internal/identity"
	"github.com/book-wise/book_wise/internal/metrics"
	"github.com/book-wise/book_wise/internal/ratelimit"
	"github.com/book-wise/book_wise/internal/session"
	"github.com/book-wise/book_wise/internal/workflow"
)

// Messages returned to the client. Internal failures never leak past these.
const (
	MsgUserExists         = "User already exists"
	MsgSignInError        = "Sign in Error"
	MsgAutoLoginFailed    = "Account created but auto-login failed. Please sign in."
	MsgRegistrationFailed = "Registration failed. Please try again."
)

// Routes the actions redirect to.
const (
	RouteTooFast = "/too-fast"
	RouteHome    = "/"
	RouteSignIn  = "/sign-in"
)

// defaultIP is used when the request carries no X-Forwarded-For header.
const defaultIP = "127.0.0.1"

// Result is the outcome of a server action.
type Result struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`

	Session *session.Session `json:"-"`
	Token   string           `json:"-"`
}

// Users is the slice of the identity service the actions need.
type Users interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, in identity.NewUser) (identity.User, error)
}

// Sessions establishes and ends sessions.
type Sessions interface {
	SignIn(ctx context.Context, creds session.Credentials) (session.Session, string, error)
	Verify(ctx context.Context, token string) (session.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// Deps are the collaborators of the auth actions.
type Deps struct {
	Users    Users
	Limiter  ratelimit.Limiter
	Sessions Sessions
	Workflow workflow.Trigger
	// OnboardingURL is the public callback URL handed to the workflow service.
	OnboardingURL string
	Logger        *slog.Logger
}

// Caller describes who issued an action.
type Caller struct {
	IP        string
	UserAgent string
}

// ClientIP picks the first hop of an X-Forwarded-For value, falling back to 127.0.0.1.
func ClientIP(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return defaultIP
}

// Service implements the sign-in, sign-up and sign-out actions.
type Service struct {
	deps Deps
}

// NewService wires the actions. A nil limiter allows everything; a nil
// workflow trigger skips onboarding.
func NewService(deps Deps) *Service {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Unlimited{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// allow consults the limiter. Limiter outages fail open.
func (s *Service) allow(ctx context.Context, ip, action string) bool {
	d, err := s.deps.Limiter.Limit(ctx, ip)
	if err != nil {
		s.deps.Logger.Warn("rate limiter unavailable", "action", action, "error", err)
		return true
	}
	if !d.Allowed {
		metrics.RecordRateLimited(action)
		s.deps.Logger.Info("rate limited", "action", action, "ip", ip)
		return false
	}
	return true
}

// SignInWithCredentials checks the rate limit for the caller and signs in.
func (s *Service) SignInWithCredentials(ctx context.Context, caller Caller, email, password string) Result {
	if caller.IP == "" {
		caller.IP = defaultIP
	}
	if !s.allow(ctx, caller.IP, "sign_in") {
		metrics.RecordSignIn("limited")
		return Result{Success: false, Redirect: RouteTooFast}
	}
	return s.signIn(ctx, caller, normalizeEmail(email), password)
}

func (s *Service) signIn(ctx context.Context, caller Caller, email, password string) Result {
	sess, token, err := s.deps.Sessions.SignIn(ctx, session.Credentials{
		Email:     email,
		Password:  password,
		IP:        caller.IP,
		UserAgent: caller.UserAgent,
	})
	if err != nil {
		var rejected *session.SignInError
		if errors.As(err, &rejected) {
			metrics.RecordSignIn("rejected")
			return Result{Success: false, Error: rejected.Message}
		}
		metrics.RecordSignIn("error")
		s.deps.Logger.Error("sign in failed", "error", err)
		return Result{Success: false, Error: MsgSignInError}
	}
	metrics.RecordSignIn("success")
	return Result{Success: true, Session: &sess, Token: token}
}

// SignUp registers a new user, starts onboarding and signs the user in.
// The email check and the insert are separate statements; two concurrent
// sign-ups for one email can both pass the check.
func (s *Service) SignUp(ctx context.Context, caller Caller, in identity.NewUser) Result {
	if caller.IP == "" {
		caller.IP = defaultIP
	}
	if !s.allow(ctx, caller.IP, "sign_up") {
		metrics.RecordSignUp("limited")
		return Result{Success: false, Redirect: RouteTooFast}
	}
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	taken, err := s.deps.Users.EmailTaken(ctx, in.Email)
	if err != nil {
		metrics.RecordSignUp("error")
		s.deps.Logger.Error("sign up lookup failed", "error", err)
		return Result{Success: false, Error: MsgRegistrationFailed}
	}
	if taken {
		metrics.RecordSignUp("exists")
		return Result{Success: false, Error: MsgUserExists}
	}

	user, err := s.deps.Users.Register(ctx, in)
	if err != nil {
		metrics.RecordSignUp("error")
		s.deps.Logger.Error("sign up failed", "error", err)
		return Result{Success: false, Error: MsgRegistrationFailed}
	}
	metrics.RecordSignUp("created")
	s.deps.Logger.Info("user registered", "user_id", user.ID)

	s.startOnboarding(ctx, user)

	res := s.SignInWithCredentials(ctx, caller, in.Email, in.Password)
	if res.Redirect == RouteTooFast {
		return res
	}
	if !res.Success {
		return Result{Success: false, Error: MsgAutoLoginFailed}
	}
	res.Redirect = RouteHome
	return res
}

func (s *Service) startOnboarding(ctx context.Context, user identity.User) {
	if s.deps.Workflow == nil {
		return
	}
	err := s.deps.Workflow.Trigger(ctx, workflow.Request{
		URL:  s.deps.OnboardingURL,
		Body: workflow.OnboardingPayload{Email: user.Email, FullName: user.FullName},
	})
	metrics.RecordWorkflowTrigger(err == nil)
	if err != nil {
		s.deps.Logger.Warn("onboarding workflow not started", "user_id", user.ID, "error", err)
	}
}

// SignOut discards the session identified by sessionID.
func (s *Service) SignOut(ctx context.Context, sessionID string) Result {
	if sessionID != "" {
		if err := s.deps.Sessions.SignOut(ctx, sessionID); err != nil {
			s.deps.Logger.Warn("sign out failed", "session_id", sessionID, "error", err)
		}
	}
	return Result{Success: true, Redirect: RouteSignIn}
}

// Verify resolves a session token.
func (s *Service) Verify(ctx context.Context, token string) (session.Session, error) {
	return s.deps.Sessions.Verify(ctx, token)
}
