// Command upload sends a university ID card image through the same upload
// flow the sign-up form uses and, with -sign-up, registers the account too.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/book-wise/book_wise/internal/auth"
	"github.com/book-wise/book_wise/internal/config"
	"github.com/book-wise/book_wise/internal/form"
	"github.com/book-wise/book_wise/internal/upload"
)

type stderrNotifier struct{}

func (stderrNotifier) Success(msg string) { fmt.Fprintln(os.Stderr, "✓", msg) }
func (stderrNotifier) Error(msg string)   { fmt.Fprintln(os.Stderr, "✗", msg) }

type printNavigator struct{}

func (printNavigator) Navigate(route string) { fmt.Fprintln(os.Stderr, "→", route) }

func main() {
	var (
		path     = flag.String("file", "", "image to upload")
		backend  = flag.String("backend", "cdn", "upload backend: cdn or s3")
		server   = flag.String("server", "", "BookWise base URL (defaults to API_ENDPOINT)")
		signUp   = flag.Bool("sign-up", false, "register an account with the uploaded card")
		fullName = flag.String("name", "", "full name (with -sign-up)")
		email    = flag.String("email", "", "email (with -sign-up)")
		uniID    = flag.Int("university-id", 0, "university ID number (with -sign-up)")
		password = flag.String("password", "", "password (with -sign-up)")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: upload -file card.png [-backend cdn|s3] [-sign-up -name ... -email ... -university-id ... -password ...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.APIEndpoint = *server
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	uploader, err := newUploader(ctx, cfg, *backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	file, err := readFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}

	var cardURL string
	field := upload.NewField(uploader, upload.FieldOptions{
		Notifier: stderrNotifier{},
		OnChange: func(url string) { cardURL = url },
	})
	if _, err := field.Select(ctx, file); err != nil {
		os.Exit(1)
	}
	fmt.Println(cardURL)

	if !*signUp {
		return
	}

	client := auth.NewClient(cfg.APIEndpoint)
	f := form.New[form.SignUpValues](form.SignUp, client.SignUp, form.Options{
		Notifier:  stderrNotifier{},
		Navigator: printNavigator{},
		Delay:     time.Second,
	})
	err = f.Submit(ctx, form.SignUpValues{
		FullName:       *fullName,
		Email:          *email,
		UniversityID:   *uniID,
		Password:       *password,
		UniversityCard: cardURL,
	})
	if errors.Is(err, form.ErrRedirected) {
		fmt.Fprintln(os.Stderr, "too many attempts, try again in a minute")
		os.Exit(1)
	}
	if err != nil {
		for name, msg := range f.Errors() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", form.Labels[name], msg)
		}
		os.Exit(1)
	}
}

func newUploader(ctx context.Context, cfg config.Config, backend string) (upload.Uploader, error) {
	switch backend {
	case "cdn":
		return upload.NewCDNClient(upload.CDNConfig{
			AuthURL:   cfg.URL("/api/auth/imagekit"),
			UploadURL: cfg.ImageKit.UploadURL,
			PublicKey: cfg.ImageKit.PublicKey,
		}), nil
	case "s3":
		return upload.NewS3Uploader(ctx, upload.S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			Prefix:        "university-cards/",
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func readFile(path string) (upload.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return upload.File{}, err
	}
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	return upload.File{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(sniff),
		Data:        data,
	}, nil
}
