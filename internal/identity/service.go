package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages the user lifecycle on top of a Repository.
type Service struct {
	repo   Repository
	hasher Hasher
	now    func() time.Time
}

// NewService creates a new identity service. A nil hasher selects bcrypt at DefaultCost.
func NewService(repo Repository, hasher Hasher) *Service {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	return &Service{repo: repo, hasher: hasher, now: time.Now}
}

// EmailTaken reports whether a user with email already exists. The check is
// not atomic with a later Register call.
func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup user by email: %w", err)
	}
}

// Register hashes the password and inserts a pending user.
func (s *Service) Register(ctx context.Context, in NewUser) (User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := User{
		ID:               uuid.New().String(),
		FullName:         in.FullName,
		Email:            in.Email,
		UniversityID:     in.UniversityID,
		PasswordHash:     hash,
		UniversityCard:   in.UniversityCard,
		Status:           StatusPending,
		Role:             RoleUser,
		LastActivityDate: now.Truncate(24 * time.Hour),
		CreatedAt:        now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return User{}, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	if user.LastActivityDate.Before(today) {
		if err := s.repo.TouchLastActivity(ctx, user.ID, today); err == nil {
			user.LastActivityDate = today
		}
	}
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}
