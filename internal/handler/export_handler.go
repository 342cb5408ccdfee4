package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soltab/internal/service"
)

// ExportHandler serves the files written by the last pipeline run.
type ExportHandler struct {
	exports service.ExportService
	logger  *zap.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports service.ExportService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exports: exports, logger: logger}
}

// Download handles GET /api/v1/exports/*name
// Published exports redirect to a presigned URL; local ones are streamed.
func (h *ExportHandler) Download(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "export name is required")
		return
	}

	loc, err := h.exports.Locate(c.Request.Context(), name)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	if loc.URL != "" {
		c.Redirect(http.StatusFound, loc.URL)
		return
	}
	c.Header("Content-Type", loc.ContentType)
	c.FileAttachment(loc.Path, loc.Filename)
}
