package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    university_id INTEGER NOT NULL,
    password TEXT NOT NULL,
    university_card TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    role TEXT NOT NULL DEFAULT 'USER',
    last_activity_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
)`

type userRow struct {
	ID               string    `db:"id"`
	FullName         string    `db:"full_name"`
	Email            string    `db:"email"`
	UniversityID     int       `db:"university_id"`
	Password         string    `db:"password"`
	UniversityCard   string    `db:"university_card"`
	Status           string    `db:"status"`
	Role             string    `db:"role"`
	LastActivityDate time.Time `db:"last_activity_date"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r userRow) user() User {
	return User{
		ID:               r.ID,
		FullName:         r.FullName,
		Email:            r.Email,
		UniversityID:     r.UniversityID,
		PasswordHash:     r.Password,
		UniversityCard:   r.UniversityCard,
		Status:           r.Status,
		Role:             r.Role,
		LastActivityDate: r.LastActivityDate.UTC(),
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

// SQLRepository implements Repository over database/sql via sqlx. It backs
// the embedded SQLite store used for local development.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open sqlx handle.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteSchema)
	return err
}

// Create inserts a new user.
func (r *SQLRepository) Create(ctx context.Context, user User) error {
	row := userRow{
		ID:               user.ID,
		FullName:         user.FullName,
		Email:            user.Email,
		UniversityID:     user.UniversityID,
		Password:         user.PasswordHash,
		UniversityCard:   user.UniversityCard,
		Status:           user.Status,
		Role:             user.Role,
		LastActivityDate: user.LastActivityDate.UTC(),
		CreatedAt:        user.CreatedAt.UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES (:id, :full_name, :email, :university_id, :password, :university_card, :status, :role, :last_activity_date, :created_at)`, row)
	return err
}

// FindByEmail fetches at most one user by email.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
}

// FindByID fetches a user by identifier.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// TouchLastActivity records the day of the user's latest sign-in.
func (r *SQLRepository) TouchLastActivity(ctx context.Context, id string, day time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET last_activity_date = ? WHERE id = ?`), day.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *SQLRepository) get(ctx context.Context, query string, args ...any) (User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return row.user(), nil
}
