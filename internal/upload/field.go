package upload

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Field.
type State int

const (
	StateEmpty State = iota
	StateSelected
	StateUploading
	StateUploaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSelected:
		return "selected"
	case StateUploading:
		return "uploading"
	case StateUploaded:
		return "uploaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Previews hands out local preview handles for selected files.
type Previews interface {
	Create(f File) string
	Revoke(handle string)
}

// PreviewRegistry is an in-memory Previews that tracks live handles.
type PreviewRegistry struct {
	mu   sync.Mutex
	live map[string]File
}

// NewPreviewRegistry returns an empty registry.
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{live: make(map[string]File)}
}

// Create registers f and returns its handle.
func (r *PreviewRegistry) Create(f File) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle := "blob:" + uuid.NewString()
	r.live[handle] = f
	return handle
}

// Revoke releases a handle. Unknown handles are ignored.
func (r *PreviewRegistry) Revoke(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, handle)
}

// Live returns the number of unreleased handles.
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// FieldOptions configures a Field.
type FieldOptions struct {
	Notifier Notifier
	Previews Previews
	// OnChange receives the uploaded URL, or "" when the value is cleared.
	OnChange func(url string)
	// Value is an already uploaded URL to start from.
	Value string
}

// Field is the university ID card input: it validates a selection, uploads
// it straight away and reports the resulting URL through OnChange.
type Field struct {
	uploader Uploader
	notify   Notifier
	previews Previews
	onChange func(string)

	mu      sync.Mutex
	state   State
	file    *File
	url     string
	preview string
	// gen changes on every selection or reset so a stale upload cannot
	// overwrite newer state.
	gen uint64
}

// NewField builds a field around uploader.
func NewField(uploader Uploader, opts FieldOptions) *Field {
	f := &Field{
		uploader: uploader,
		notify:   opts.Notifier,
		previews: opts.Previews,
		onChange: opts.OnChange,
	}
	if f.notify == nil {
		f.notify = nopNotifier{}
	}
	if f.previews == nil {
		f.previews = NewPreviewRegistry()
	}
	if opts.Value != "" {
		f.url = opts.Value
		f.state = StateUploaded
	}
	return f
}

// Select validates file, makes it the current selection and uploads it. A
// rejected file leaves the field untouched. An upload failure is reported
// and returned but does not prevent another selection.
func (f *Field) Select(ctx context.Context, file File) (Result, error) {
	if err := Validate(file); err != nil {
		f.notify.Error(err.Error())
		return Result{}, err
	}

	f.mu.Lock()
	f.releasePreview()
	f.gen++
	f.file = &file
	f.url = ""
	f.preview = f.previews.Create(file)
	f.state = StateSelected
	f.mu.Unlock()

	return f.upload(ctx)
}

// UploadNow uploads the current selection.
func (f *Field) UploadNow(ctx context.Context) (Result, error) {
	f.mu.Lock()
	switch {
	case f.file == nil:
		f.mu.Unlock()
		return Result{}, ErrNoFile
	case f.state == StateUploading:
		f.mu.Unlock()
		return Result{}, ErrUploadInProgress
	}
	f.mu.Unlock()
	return f.upload(ctx)
}

func (f *Field) upload(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.file == nil {
		f.mu.Unlock()
		return Result{}, ErrNoFile
	}
	file := *f.file
	gen := f.gen
	f.state = StateUploading
	f.mu.Unlock()

	res, err := f.uploader.Upload(ctx, file)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		if err != nil {
			return Result{}, err
		}
		return res, nil
	}
	if err != nil {
		f.state = StateFailed
		f.mu.Unlock()
		f.notify.Error("Upload failed: " + err.Error())
		return Result{}, err
	}
	f.url = res.URL
	f.state = StateUploaded
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(res.URL)
	}
	f.notify.Success("University ID uploaded successfully!")
	return res, nil
}

// HasFile reports whether a file is selected or a URL is already set.
func (f *Field) HasFile() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file != nil || f.url != ""
}

// Reset clears the selection, the value and the preview.
func (f *Field) Reset() {
	f.clear()
}

// Remove clears the field like Reset and confirms it to the user.
func (f *Field) Remove() {
	f.clear()
	f.notify.Success("File removed successfully")
}

func (f *Field) clear() {
	f.mu.Lock()
	f.releasePreview()
	f.gen++
	f.file = nil
	f.url = ""
	f.state = StateEmpty
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange("")
	}
}

// releasePreview must be called with mu held.
func (f *Field) releasePreview() {
	if f.preview != "" {
		f.previews.Revoke(f.preview)
		f.preview = ""
	}
}

// State returns the current state.
func (f *Field) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// URL returns the uploaded URL, or "".
func (f *Field) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// Preview returns the current preview handle, or "".
func (f *Field) Preview() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview
}
