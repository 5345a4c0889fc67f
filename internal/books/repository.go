package books

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBookNotFound is returned when no book matches the id.
var ErrBookNotFound = errors.New("book not found")

// Repository reads the catalogue.
type Repository interface {
	Latest(ctx context.Context, limit int) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Borrowed(ctx context.Context, userID string) ([]Book, error)
}

// PostgresRepository reads books from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookColumns = `b.id, b.title, b.author, b.genre, b.rating, b.total_copies, b.available_copies,
        b.description, b.cover_url, b.cover_color, b.summary, b.created_at`

// Latest returns up to limit books, newest first.
func (r *PostgresRepository) Latest(ctx context.Context, limit int) ([]Book, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

// Get fetches one book.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Book, error) {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = $1`, bookID)
	if err != nil {
		return Book{}, err
	}
	out, err := collectBooks(rows)
	if err != nil {
		return Book{}, err
	}
	if len(out) == 0 {
		return Book{}, ErrBookNotFound
	}
	return out[0], nil
}

// Borrowed returns the books a user currently has out.
func (r *PostgresRepository) Borrowed(ctx context.Context, userID string) ([]Book, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookColumns+`
        FROM borrow_records br JOIN books b ON b.id = br.book_id
        WHERE br.user_id = $1 AND br.status = 'BORROWED'
        ORDER BY br.borrow_date DESC`, uid)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func collectBooks(rows pgx.Rows) ([]Book, error) {
	defer rows.Close()
	var out []Book
	for rows.Next() {
		var (
			id uuid.UUID
			b  Book
		)
		if err := rows.Scan(&id, &b.Title, &b.Author, &b.Genre, &b.Rating, &b.TotalCopies, &b.AvailableCopies,
			&b.Description, &b.CoverURL, &b.CoverColor, &b.Summary, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.ID = id.String()
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}
