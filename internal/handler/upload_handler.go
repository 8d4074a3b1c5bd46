package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"photopass/internal/config"
	"photopass/internal/domain"
	"photopass/internal/service"
)

// multipartEnvelope is the allowance for boundaries and part headers on top
// of the file size limit.
const multipartEnvelope = 1 << 20

// UploadMethods lists the methods served on the upload route.
const UploadMethods = "POST, OPTIONS"

// UploadHandler handles the ingestion endpoint.
type UploadHandler struct {
	uploadService service.UploadService
	cfg           *config.UploadConfig
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService service.UploadService, cfg *config.UploadConfig) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, cfg: cfg}
}

// Upload handles POST /api/upload
// @Summary Upload an image
// @Description Upload exactly one image (max 20MB by default) in the multipart field "file". The returned key identifies the converted object to poll for.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image to upload"
// @Success 200 {object} domain.UploadResult "Stored"
// @Failure 400 {object} ErrorResponseBody "Missing file, wrong type, too large or malformed body"
// @Failure 500 {object} ErrorResponseBody "Storage write failed"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBytes()+multipartEnvelope)

	if err := c.Request.ParseMultipartForm(h.cfg.MemoryLimitBytes()); err != nil {
		h.handleError(c, classifyParseError(err))
		return
	}
	form := c.Request.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["file"]
	switch {
	case len(headers) == 0:
		h.handleError(c, domain.ErrMissingFile)
		return
	case len(headers) > 1:
		h.handleError(c, domain.ErrTooManyFiles)
		return
	}
	header := headers[0]

	file, err := header.Open()
	if err != nil {
		h.handleError(c, domain.WithDetails(domain.ErrFileUnreadable, err))
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.uploadService.Upload(c.Request.Context(), service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Preflight handles OPTIONS /api/upload for callers the CORS middleware
// did not already answer.
func (h *UploadHandler) Preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", UploadMethods)
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusOK)
}

// MethodNotAllowed rejects every method other than POST and OPTIONS.
func (h *UploadHandler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", UploadMethods)
	RespondError(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s Not Allowed", c.Request.Method), "")
}

func (h *UploadHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrFileTooLarge) {
		RespondError(c, http.StatusBadRequest,
			fmt.Sprintf("File size should be less than %dMB", h.cfg.MaxFileSizeMB), domain.Details(err))
		return
	}
	HandleError(c, err)
}

// classifyParseError separates body size violations from other multipart
// errors. multipart.ErrMessageTooLarge also covers part and header count
// limits, so it stays a malformed upload.
func classifyParseError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return domain.WithDetails(domain.ErrFileTooLarge, err)
	}
	return domain.WithDetails(domain.ErrMalformedUpload, err)
}
