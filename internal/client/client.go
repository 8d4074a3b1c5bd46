// Package client submits uploads to the ingestion endpoint and downloads
// converted objects.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"photopass/internal/domain"
)

const defaultUploadError = "Upload failed."

// UploadError is returned when the ingestion endpoint answers with a non-2xx status.
type UploadError struct {
	Status  int
	Message string
	Details string
}

func (e *UploadError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

// Client talks to a photopass server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Upload sends the file at path as the single "file" part of a multipart
// request. There is no retry; a failed upload must be resubmitted.
func (c *Client) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.ErrNoFileSelected
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: opening %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	contentType, body, err := partContent(name, f)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: reading %s: %w", path, err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writePart(writer, name, contentType, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("client.Upload: building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeUploadError(resp)
	}

	var result domain.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("client.Upload: decoding response: %w", err)
	}
	return &result, nil
}

// Download fetches url and writes it to dir/name, replacing any existing file.
// The file only appears once the body has been fully written.
func (c *Client) Download(ctx context.Context, url, dir, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("client.Download: building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("client.Download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("client.Download: unexpected status %d from %s", resp.StatusCode, url)
	}

	dest := filepath.Join(dir, filepath.Base(name))
	tmp, err := os.CreateTemp(dir, ".photopass-*")
	if err != nil {
		return "", fmt.Errorf("client.Download: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("client.Download: writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("client.Download: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("client.Download: %w", err)
	}
	return dest, nil
}

// partContent picks the part Content-Type from the extension, falling back
// to sniffing the first bytes of the file.
func partContent(name string, r io.Reader) (string, io.Reader, error) {
	if ct := domain.ContentTypeForFilename(name); ct != "" {
		return ct, r, nil
	}
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", nil, err
	}
	return http.DetectContentType(head), br, nil
}

func writePart(writer *multipart.Writer, name, contentType string, body io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return writer.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func decodeUploadError(resp *http.Response) error {
	upErr := &UploadError{Status: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		upErr.Message = body.Error
		upErr.Details = body.Details
	}
	if upErr.Message == "" {
		upErr.Message = defaultUploadError
	}
	return upErr
}
