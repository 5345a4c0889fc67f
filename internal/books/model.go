package books

import "time"

// Book is a catalogue entry.
type Book struct {
	ID              string
	Title           string
	Author          string
	Genre           string
	Rating          float64
	TotalCopies     int
	AvailableCopies int
	Description     string
	CoverURL        string
	CoverColor      string
	Summary         string
	CreatedAt       time.Time
}

// Profile is the signed-in member's page.
type Profile struct {
	UserID       string
	FullName     string
	Initials     string
	Email        string
	UniversityID int
	Status       string
	Borrowed     []Book
}
