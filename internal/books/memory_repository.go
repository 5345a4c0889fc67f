package books

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory catalogue for development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	books    map[string]Book
	borrowed map[string][]string
}

// NewMemoryRepository builds an in-memory catalogue holding books.
func NewMemoryRepository(books ...Book) *MemoryRepository {
	r := &MemoryRepository{books: make(map[string]Book), borrowed: make(map[string][]string)}
	for _, b := range books {
		r.books[b.ID] = b
	}
	return r
}

// Lend records that userID has borrowed bookID.
func (r *MemoryRepository) Lend(userID, bookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.borrowed[userID] = append(r.borrowed[userID], bookID)
}

func (r *MemoryRepository) Latest(_ context.Context, limit int) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return b, nil
}

func (r *MemoryRepository) Borrowed(_ context.Context, userID string) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Book
	for _, id := range r.borrowed[userID] {
		if b, ok := r.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// SampleBooks is the catalogue served when no database is configured.
func SampleBooks() []Book {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Book{
		{
			ID: "7f3c2a9e-1b4d-4c6e-9a51-2d8f0b6e4a11", Title: "The Midnight Library", Author: "Matt Haig",
			Genre: "Fantasy / Fiction", Rating: 4.6, TotalCopies: 20, AvailableCopies: 10,
			Description: "A dazzling novel about all the choices that go into a life well lived.",
			CoverURL:    "https://m.media-amazon.com/images/I/81J6APjwxlL.jpg",
			CoverColor:  "#1c1f40",
			Summary:     "Between life and death there is a library, and within that library, the shelves go on forever.",
			CreatedAt:   base.Add(72 * time.Hour),
		},
		{
			ID: "0a1e9c55-6f2b-4a77-8d13-5c9b2e7f3d22", Title: "Atomic Habits", Author: "James Clear",
			Genre: "Self-Help / Productivity", Rating: 4.9, TotalCopies: 99, AvailableCopies: 50,
			Description: "A revolutionary system to get 1 per cent better every day.",
			CoverURL:    "https://m.media-amazon.com/images/I/81wgcld4wxL.jpg",
			CoverColor:  "#fffdf6",
			Summary:     "Tiny changes, remarkable results: how small habits compound into big outcomes.",
			CreatedAt:   base.Add(48 * time.Hour),
		},
		{
			ID: "c4b8d2e1-93a7-4f0c-b6e5-8a2d1f9c7e33", Title: "Clean Code", Author: "Robert C. Martin",
			Genre: "Computer Science / Programming", Rating: 4.7, TotalCopies: 56, AvailableCopies: 56,
			Description: "A handbook of agile software craftsmanship.",
			CoverURL:    "https://m.media-amazon.com/images/I/71T7aD3EOTL._SL1500_.jpg",
			CoverColor:  "#080c0d",
			Summary:     "Even bad code can function, but clean code is what keeps a project alive.",
			CreatedAt:   base.Add(24 * time.Hour),
		},
		{
			ID: "e9d7a3b2-5c1f-4e88-a0b4-6f3c2d1e8b44", Title: "The Pragmatic Programmer", Author: "Andrew Hunt, David Thomas",
			Genre: "Computer Science / Programming", Rating: 4.8, TotalCopies: 25, AvailableCopies: 3,
			Description: "Your journey to mastery.",
			CoverURL:    "https://m.media-amazon.com/images/I/71VStSjZmpL._SL1500_.jpg",
			CoverColor:  "#f7a13e",
			Summary:     "Practical advice on writing flexible, maintainable code and growing as a developer.",
			CreatedAt:   base,
		},
	}
}
