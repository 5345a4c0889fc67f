// Package upload moves university ID card images to the image CDN (or an
// S3-compatible bucket) and tracks the upload field's state.
package upload

import (
	"context"
	"errors"
	"strings"
)

// MaxFileSize is the largest accepted image, in bytes.
const MaxFileSize = 5 * 1024 * 1024

// User-visible errors. Their text is shown verbatim in notifications.
var (
	ErrInvalidType         = errors.New("Please select a valid image file")
	ErrTooLarge            = errors.New("File size must be less than 5MB")
	ErrNoFile              = errors.New("No file selected")
	ErrInvalidAuthResponse = errors.New("Invalid authentication response from server")
	ErrNoURL               = errors.New("Upload completed but no URL returned")
	ErrAuthUnreachable     = errors.New("Cannot connect to authentication server. Please check if the server is running.")
	ErrUploadInProgress    = errors.New("upload already in progress")
)

// File is a selected image held in memory. Images are capped at MaxFileSize.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Validate rejects non-image content and files over MaxFileSize.
func Validate(f File) error {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return ErrInvalidType
	}
	if f.Size() > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// Credentials are the short-lived parameters that authorise one CDN upload.
type Credentials struct {
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	Token     string `json:"token"`
}

// Result describes a stored file.
type Result struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
	Name   string `json:"name"`
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (Result, error)
}
