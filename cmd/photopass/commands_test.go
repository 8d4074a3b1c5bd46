package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopass/internal/domain"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func uploadServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// convertedServer answers HEAD with 404 until readyAfter probes have been
// seen, then serves the object.
func convertedServer(t *testing.T, readyAfter int32, heads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			if heads.Add(1) <= readyAfter {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = io.WriteString(w, "passport-bytes")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadCommand_NoFileIsNoop(t *testing.T) {
	out, errOut, err := execute(t, "upload", "--server", "http://127.0.0.1:1")

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, errOut)
}

func TestUploadCommand_Success(t *testing.T) {
	srv := uploadServer(t, http.StatusOK, domain.UploadResult{OriginalName: "me.jpg", Key: "1-me.jpg", URL: "https://u/1-me.jpg"})
	path := filepath.Join(t.TempDir(), "me.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))

	out, _, err := execute(t, "upload", path, "--server", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded: me.jpg")
	assert.Contains(t, out, "1-me.jpg")
}

func TestUploadCommand_ReportsEndpointError(t *testing.T) {
	srv := uploadServer(t, http.StatusBadRequest, map[string]string{
		"error":   "Only image files are allowed!",
		"details": `content type "text/plain" is not an image type`,
	})
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, errOut, err := execute(t, "upload", path, "--server", srv.URL)

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "Only image files are allowed!")
	assert.Contains(t, errOut, "text/plain")
}

func TestConvertCommand_DownloadsOnceReady(t *testing.T) {
	var heads atomic.Int32
	converted := convertedServer(t, 2, &heads)
	dir := t.TempDir()

	out, _, err := execute(t, "convert", "1-me.jpg",
		"--converted-base", converted.URL,
		"--interval", "5ms",
		"--attempts", "5",
		"--out", dir,
	)

	require.NoError(t, err)
	assert.Equal(t, int32(3), heads.Load())
	assert.Contains(t, out, "Downloaded passport photo!")
	data, err := os.ReadFile(filepath.Join(dir, "1-me.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "passport-bytes", string(data))
}

func TestConvertCommand_TimesOut(t *testing.T) {
	var heads atomic.Int32
	converted := convertedServer(t, 1000, &heads)

	_, errOut, err := execute(t, "convert", "1-me.jpg",
		"--converted-base", converted.URL,
		"--interval", "1ms",
		"--attempts", "4",
		"--out", t.TempDir(),
	)

	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, int32(4), heads.Load())
	assert.Contains(t, errOut, "Conversion timed out. Try again later.")
}

func TestRunCommand_UploadsThenConverts(t *testing.T) {
	srv := uploadServer(t, http.StatusOK, domain.UploadResult{OriginalName: "me.jpg", Key: "1-me.jpg", URL: "https://u/1-me.jpg"})
	var heads atomic.Int32
	converted := convertedServer(t, 0, &heads)
	path := filepath.Join(t.TempDir(), "me.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
	dir := t.TempDir()

	out, _, err := execute(t, "run", path,
		"--server", srv.URL,
		"--converted-base", converted.URL,
		"--interval", "1ms",
		"--out", dir,
	)

	require.NoError(t, err)
	assert.Equal(t, int32(1), heads.Load())
	assert.Contains(t, out, "Uploaded: me.jpg")
	assert.Contains(t, out, "Downloaded passport photo!")
	assert.FileExists(t, filepath.Join(dir, "1-me.jpg"))
}

func TestStatusCommand(t *testing.T) {
	var heads atomic.Int32
	converted := convertedServer(t, 1, &heads)

	out, _, err := execute(t, "status", "1-me.jpg", "--converted-base", converted.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Not ready:")

	out, _, err = execute(t, "status", "1-me.jpg", "--converted-base", converted.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Ready:")
	assert.Contains(t, out, converted.URL+"/1-me.jpg")
}
