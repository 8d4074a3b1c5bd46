package domain

import "time"

// UploadResult is returned to the client after a successful upload. Key is
// the only handle used for later conversion polling.
type UploadResult struct {
	OriginalName string `json:"originalname" example:"portrait.jpg"`
	Key          string `json:"key" example:"1718000000000-portrait.jpg"`
	URL          string `json:"url" example:"https://photopass-uploads.s3.ap-south-1.amazonaws.com/1718000000000-portrait.jpg"`
}

// StorageObject describes an object written to the upload bucket.
type StorageObject struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Location    string
}

// ConversionStatus is the outcome of a single probe of the converted namespace.
type ConversionStatus struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Ready bool   `json:"ready"`
}

// ConversionResult is returned once a converted object has been found.
type ConversionResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Attempts int    `json:"attempts"`
}

// UploadEvent is published after an object lands in the upload bucket.
type UploadEvent struct {
	Key          string    `json:"key"`
	Bucket       string    `json:"bucket"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
