package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"photopass/internal/service"
)

// ConversionHandler exposes the converted-object probe and poller.
type ConversionHandler struct {
	conversionService service.ConversionService
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversionService service.ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService}
}

// Status handles GET /api/converted
// @Summary Check for a converted object
// @Description Probe the converted namespace once for the given upload key
// @Tags conversion
// @Produce json
// @Param key query string true "Upload key returned by POST /upload"
// @Success 200 {object} domain.ConversionStatus "Probe result"
// @Failure 400 {object} ErrorResponseBody "Missing key"
// @Failure 502 {object} ErrorResponseBody "Probe failed"
// @Router /converted [get]
func (h *ConversionHandler) Status(c *gin.Context) {
	status, err := h.conversionService.Check(c.Request.Context(), queryKey(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, status)
}

// Wait handles GET /api/converted/wait
// @Summary Wait for a converted object
// @Description Poll the converted namespace on a fixed interval until the object appears or the attempt budget is spent
// @Tags conversion
// @Produce json
// @Param key query string true "Upload key returned by POST /upload"
// @Success 200 {object} domain.ConversionResult "Converted object found"
// @Failure 400 {object} ErrorResponseBody "Missing key"
// @Failure 504 {object} ErrorResponseBody "Conversion timed out"
// @Router /converted/wait [get]
func (h *ConversionHandler) Wait(c *gin.Context) {
	result, err := h.conversionService.Poll(c.Request.Context(), queryKey(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

func queryKey(c *gin.Context) string {
	return strings.TrimSpace(c.Query("key"))
}
