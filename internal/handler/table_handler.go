package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/service"
)

// TableHandler serves processed table records and merged tables.
type TableHandler struct {
	datasets service.DatasetService
	logger   *zap.Logger
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(datasets service.DatasetService, logger *zap.Logger) *TableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableHandler{datasets: datasets, logger: logger}
}

// List handles GET /api/v1/tables
func (h *TableHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	needsReview, ok := parseBool(c, "needs_review")
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "needs_review must be true or false")
		return
	}

	priority := domain.Priority(c.Query("priority"))
	if priority != "" && !priority.Valid() {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unknown priority")
		return
	}

	records, total, err := h.datasets.ListTables(c.Request.Context(), domain.RecordFilters{
		Document:    c.Query("document"),
		System:      c.Query("system"),
		Priority:    priority,
		NeedsReview: needsReview,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/tables/:id
func (h *TableHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid table ID")
		return
	}

	rec, err := h.datasets.GetTable(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	RespondOK(c, rec)
}

// ListMerged handles GET /api/v1/merged
func (h *TableHandler) ListMerged(c *gin.Context) {
	offset, limit := parsePagination(c)

	tables, total, err := h.datasets.ListMerged(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	RespondPaginated(c, tables, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetMerged handles GET /api/v1/merged/:id
func (h *TableHandler) GetMerged(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid merged table ID")
		return
	}

	m, err := h.datasets.GetMerged(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	RespondOK(c, m)
}
