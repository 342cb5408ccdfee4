package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/service"
)

// SearchHandler serves dataset search and the master index.
type SearchHandler struct {
	datasets service.DatasetService
	logger   *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(datasets service.DatasetService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{datasets: datasets, logger: logger}
}

// Search handles GET /api/v1/search?q=&document=&system=&type=&needs_review=
func (h *SearchHandler) Search(c *gin.Context) {
	offset, limit := parsePagination(c)
	needsReview, ok := parseBool(c, "needs_review")
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "needs_review must be true or false")
		return
	}

	hits, total, err := h.datasets.Search(c.Request.Context(), domain.SearchFilters{
		Query:       c.Query("q"),
		Document:    c.Query("document"),
		System:      c.Query("system"),
		DataType:    domain.ColumnType(c.Query("type")),
		NeedsReview: needsReview,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	RespondPaginated(c, hits, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Index handles GET /api/v1/index
func (h *SearchHandler) Index(c *gin.Context) {
	idx, err := h.datasets.Index(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, idx)
}
