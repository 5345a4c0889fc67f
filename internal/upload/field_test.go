package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls int
	err   error
	url   string
}

func (u *fakeUploader) Upload(_ context.Context, f File) (Result, error) {
	u.calls++
	if u.err != nil {
		return Result{}, u.err
	}
	return Result{URL: u.url, FileID: "f_1", Name: f.Name}, nil
}

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

func TestFieldSelectUploadsAndReportsURL(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.example/card.png"}
	notes := &recordingNotifier{}
	var values []string
	f := NewField(up, FieldOptions{Notifier: notes, OnChange: func(v string) { values = append(values, v) }})

	res, err := f.Select(context.Background(), pngFile())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/card.png", res.URL)
	assert.Equal(t, []string{"https://cdn.example/card.png"}, values)
	assert.Equal(t, StateUploaded, f.State())
	assert.True(t, f.HasFile())
	assert.Equal(t, []string{"University ID uploaded successfully!"}, notes.successes)
}

func TestFieldRejectsInvalidSelection(t *testing.T) {
	up := &fakeUploader{url: "u"}
	notes := &recordingNotifier{}
	f := NewField(up, FieldOptions{Notifier: notes})

	_, err := f.Select(context.Background(), File{Name: "a.txt", ContentType: "text/plain", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.Equal(t, StateEmpty, f.State())
	assert.Zero(t, up.calls)
	assert.Equal(t, []string{"Please select a valid image file"}, notes.errors)
}

func TestFieldUploadFailureAllowsReselect(t *testing.T) {
	up := &fakeUploader{err: errors.New("network down")}
	notes := &recordingNotifier{}
	var values []string
	f := NewField(up, FieldOptions{Notifier: notes, OnChange: func(v string) { values = append(values, v) }})

	_, err := f.Select(context.Background(), pngFile())
	require.Error(t, err)
	assert.Equal(t, StateFailed, f.State())
	assert.Empty(t, f.URL())
	assert.Empty(t, values)
	assert.Equal(t, []string{"Upload failed: network down"}, notes.errors)

	up.err = nil
	up.url = "https://cdn.example/again.png"
	_, err = f.UploadNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUploaded, f.State())
	assert.Equal(t, []string{"https://cdn.example/again.png"}, values)
}

func TestFieldUploadNowWithoutFile(t *testing.T) {
	f := NewField(&fakeUploader{}, FieldOptions{})
	_, err := f.UploadNow(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, "No file selected", err.Error())
	assert.False(t, f.HasFile())
}

func TestFieldReleasesPreviews(t *testing.T) {
	previews := NewPreviewRegistry()
	notes := &recordingNotifier{}
	var last string
	f := NewField(&fakeUploader{url: "u"}, FieldOptions{Previews: previews, Notifier: notes, OnChange: func(v string) { last = v }})

	_, _ = f.Select(context.Background(), pngFile())
	first := f.Preview()
	_, _ = f.Select(context.Background(), pngFile())
	assert.NotEqual(t, first, f.Preview())
	assert.Equal(t, 1, previews.Live())

	f.Remove()
	assert.Zero(t, previews.Live())
	assert.Equal(t, StateEmpty, f.State())
	assert.Empty(t, last)
	assert.Contains(t, notes.successes, "File removed successfully")

	_, _ = f.Select(context.Background(), pngFile())
	f.Reset()
	assert.Zero(t, previews.Live())
	assert.False(t, f.HasFile())
}

func TestFieldInitialValue(t *testing.T) {
	f := NewField(&fakeUploader{}, FieldOptions{Value: "https://cdn.example/existing.png"})
	assert.True(t, f.HasFile())
	assert.Equal(t, StateUploaded, f.State())
}
