package domain

import "errors"

var (
	ErrNoFileSelected      = errors.New("no file selected")
	ErrMissingFile         = errors.New("no file uploaded")
	ErrTooManyFiles        = errors.New("only one file may be uploaded")
	ErrMalformedUpload     = errors.New("malformed upload")
	ErrFileUnreadable      = errors.New("uploaded file could not be read")
	ErrUnsupportedFileType = errors.New("only image files are allowed")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrInvalidKey          = errors.New("storage key is required")
	ErrProbeFailed         = errors.New("converted object probe failed")
	ErrConversionTimeout   = errors.New("conversion timed out")
)

// DetailedError pairs a sentinel kind with the underlying cause so callers
// can match the kind with errors.Is while the cause is kept for diagnostics.
type DetailedError struct {
	Kind  error
	Cause error
}

func (e *DetailedError) Error() string {
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *DetailedError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// WithDetails wraps cause under kind. A nil cause returns kind unchanged.
func WithDetails(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &DetailedError{Kind: kind, Cause: cause}
}

// Details returns the underlying cause message of a DetailedError, or "".
func Details(err error) string {
	var de *DetailedError
	if errors.As(err, &de) {
		return de.Cause.Error()
	}
	return ""
}
