package books

import (
	"context"
	"fmt"
	"strings"

	"github.com/book-wise/book_wise/internal/identity"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Members resolves the signed-in user.
type Members interface {
	Get(ctx context.Context, id string) (identity.User, error)
}

// Service serves the catalogue and member pages.
type Service struct {
	repo    Repository
	members Members
}

// NewService builds a catalogue service.
func NewService(repo Repository, members Members) *Service {
	return &Service{repo: repo, members: members}
}

// Latest returns the newest books. limit is clamped to [1, 50] and defaults to 10.
func (s *Service) Latest(ctx context.Context, limit int) ([]Book, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.repo.Latest(ctx, limit)
}

// Featured returns the book shown in the landing page overview.
func (s *Service) Featured(ctx context.Context) (Book, error) {
	latest, err := s.repo.Latest(ctx, 1)
	if err != nil {
		return Book{}, err
	}
	if len(latest) == 0 {
		return Book{}, ErrBookNotFound
	}
	return latest[0], nil
}

// Get returns one book.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.Get(ctx, id)
}

// Borrowed lists the books a member has out.
func (s *Service) Borrowed(ctx context.Context, userID string) ([]Book, error) {
	return s.repo.Borrowed(ctx, userID)
}

// Profile assembles a member's page.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.members.Get(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load member: %w", err)
	}
	borrowed, err := s.repo.Borrowed(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load borrowed books: %w", err)
	}
	return Profile{
		UserID:       user.ID,
		FullName:     user.FullName,
		Initials:     Initials(user.FullName),
		Email:        user.Email,
		UniversityID: user.UniversityID,
		Status:       user.Status,
		Borrowed:     borrowed,
	}, nil
}

// Initials returns the upper-cased first letters of the first and last names.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(firstRune(parts[0]))
	default:
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
