package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/book-wise/book_wise/internal/auth"
	"github.com/book-wise/book_wise/internal/books"
	"github.com/book-wise/book_wise/internal/config"
	"github.com/book-wise/book_wise/internal/email"
	"github.com/book-wise/book_wise/internal/identity"
	"github.com/book-wise/book_wise/internal/metrics"
	"github.com/book-wise/book_wise/internal/middleware"
	"github.com/book-wise/book_wise/internal/ratelimit"
	"github.com/book-wise/book_wise/internal/session"
	"github.com/book-wise/book_wise/internal/upload"
	"github.com/book-wise/book_wise/internal/workflow"
)

// devSessionSecret signs session tokens in development when SESSION_SECRET is unset.
const devSessionSecret = "bookwise-dev-session-secret"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	SQL    *sqlx.DB
	Cache  *redis.Client
	Logger *slog.Logger

	// Email and Workflow replace the clients built from Cfg when set.
	Email    email.Sender
	Workflow workflow.Trigger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil && d.SQL == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler())

	// Services and handlers
	identityRepo, err := identityRepository(d)
	if err != nil {
		return err
	}
	identitySvc := identity.NewService(identityRepo, nil)

	var sessionStore session.Store
	var limiter ratelimit.Limiter
	if d.Cache != nil {
		sessionStore = session.NewRedisStore(d.Cache)
		limiter = ratelimit.NewRedisLimiter(d.Cache, d.Cfg.RateLimitMax, d.Cfg.RateLimitWindow)
	} else {
		sessionStore = session.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(d.Cfg.RateLimitMax, d.Cfg.RateLimitWindow)
	}
	secret := d.Cfg.SessionSecret
	if secret == "" {
		secret = devSessionSecret
	}
	provider := session.NewProvider(identitySvc, sessionStore, secret, d.Cfg.SessionTTL)

	sender := d.Email
	if sender == nil {
		sender = emailSender(d)
	}
	trigger := d.Workflow
	if trigger == nil {
		trigger = workflowTrigger(d)
	}
	onboardingURL := d.Cfg.URL(workflow.OnboardingPath)

	authSvc := auth.NewService(auth.Deps{
		Users:         identitySvc,
		Limiter:       limiter,
		Sessions:      provider,
		Workflow:      trigger,
		OnboardingURL: onboardingURL,
		Logger:        d.Logger,
	})
	authHandler := auth.NewHandler(authSvc, !d.Cfg.IsDev())
	uploadHandler := upload.NewHandler(upload.NewSigner(d.Cfg.ImageKit.PrivateKey, upload.DefaultExpiry), metrics.RecordUploadSigned)

	var bookRepo books.Repository
	if d.DB != nil {
		bookRepo = books.NewPostgresRepository(d.DB)
	} else {
		bookRepo = books.NewMemoryRepository(books.SampleBooks()...)
	}
	booksSvc := books.NewService(bookRepo, identitySvc)
	booksHandler := books.NewHandler(booksSvc)

	onboarding := workflow.NewOnboarding(sender,
		workflow.NewVerifier(d.Cfg.QStash.CurrentSigningKey, d.Cfg.QStash.NextSigningKey),
		onboardingURL, d.Logger)
	if !d.Cfg.IsDev() {
		onboarding.RequireSignature()
	}

	// API routes
	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFrom(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, authHandler, uploadHandler)
	RegisterWorkflowRoutes(app, onboarding)

	sessionAuth := middleware.SessionAuth(provider)
	RegisterBookRoutes(api, booksHandler, sessionAuth)
	RegisterPageRoutes(app, booksSvc)

	return nil
}

func identityRepository(d Deps) (identity.Repository, error) {
	switch {
	case d.DB != nil:
		return identity.NewPostgresRepository(d.DB), nil
	case d.SQL != nil:
		repo := identity.NewSQLRepository(d.SQL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare users table: %w", err)
		}
		return repo, nil
	default:
		return identity.NewMemoryRepository(), nil
	}
}

func emailSender(d Deps) email.Sender {
	if d.Cfg.Email.SendGridAPIKey == "" {
		return email.NewLoggerSender(d.Logger)
	}
	return email.NewSendGridSender(email.SendGridConfig{
		APIKey:      d.Cfg.Email.SendGridAPIKey,
		FromName:    d.Cfg.Email.FromName,
		FromAddress: d.Cfg.Email.FromAddress,
	}, d.Logger)
}

func workflowTrigger(d Deps) workflow.Trigger {
	if d.Cfg.QStash.Token == "" {
		return workflow.NewLoggerTrigger(d.Logger)
	}
	return workflow.NewClient(d.Cfg.QStash.URL, d.Cfg.QStash.Token, nil)
}
