package domain

import (
	"path/filepath"
	"strings"
)

// ImageContentTypes maps lower-case file extensions (without dot) to the
// content type declared for them on upload.
var ImageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"heic": "image/heic",
	"heif": "image/heif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// ContentTypeForFilename returns the image content type for a filename's
// extension, or "" when the extension is not a known image type.
func ContentTypeForFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ImageContentTypes[ext]
}

// IsImageContentType reports whether a declared content type is an image type.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// Probe results used for logging and metrics labels.
const (
	ProbeFound    = "found"
	ProbeNotFound = "not_found"
	ProbeError    = "error"
)

// Poll outcomes used for logging and metrics labels.
const (
	PollFound    = "found"
	PollTimeout  = "timeout"
	PollCanceled = "canceled"
)
