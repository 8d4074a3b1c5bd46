package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"photopass/internal/domain"
)

// ErrorResponseBody is the JSON body of every error response.
type ErrorResponseBody struct {
	Error   string `json:"error" example:"Only image files are allowed!"`
	Details string `json:"details,omitempty" example:"content type \"application/pdf\" is not an image type"`
}

// RespondOK sends a 200 response with data as the JSON body.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, msg, details string) {
	c.JSON(status, ErrorResponseBody{Error: msg, Details: details})
}

// MapDomainError translates domain errors to HTTP status codes and the
// short message shown to users.
func MapDomainError(err error) (status int, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "No file uploaded"
	case errors.Is(err, domain.ErrTooManyFiles):
		return http.StatusBadRequest, "Only one file may be uploaded"
	case errors.Is(err, domain.ErrMalformedUpload):
		return http.StatusBadRequest, "Malformed upload"
	case errors.Is(err, domain.ErrFileUnreadable):
		return http.StatusBadRequest, "Uploaded file could not be read"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "Only image files are allowed!"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusBadRequest, "File size exceeds the upload limit"
	case errors.Is(err, domain.ErrInvalidKey):
		return http.StatusBadRequest, "Query parameter key is required"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "File upload to storage failed"
	case errors.Is(err, domain.ErrProbeFailed):
		return http.StatusBadGateway, "Converted object could not be checked"
	case errors.Is(err, domain.ErrConversionTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Conversion timed out. Try again later."
	default:
		return http.StatusInternalServerError, "An internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, msg, domain.Details(err))
}
