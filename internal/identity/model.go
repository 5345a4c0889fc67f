package identity

import "time"

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a registered library member.
type User struct {
	ID               string
	FullName         string
	Email            string
	UniversityID     int
	PasswordHash     string
	UniversityCard   string
	Status           string
	Role             string
	LastActivityDate time.Time
	CreatedAt        time.Time
}

// NewUser carries the signup payload. Password is plaintext and must never
// be stored or logged.
type NewUser struct {
	FullName       string
	Email          string
	UniversityID   int
	Password       string
	UniversityCard string
}
