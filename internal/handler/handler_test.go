package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soltab/internal/domain"
	"soltab/internal/handler"
	"soltab/internal/service"
	"soltab/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, http.NoBody)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTableHandler_List(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewTableHandler(svc, nil)
	needs := true
	want := domain.RecordFilters{
		Document:    "SDS-31_Part2",
		Priority:    domain.PriorityMustReview,
		NeedsReview: &needs,
		Offset:      10,
		Limit:       20,
	}
	svc.On("ListTables", mock.Anything, want).Return([]domain.TableRecord{{ID: uuid.New()}}, 11, nil)

	c, w := newContext(http.MethodGet, "/api/v1/tables?document=SDS-31_Part2&priority=must_review&needs_review=true&offset=10&limit=500")
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 11, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestTableHandler_List_BadParams(t *testing.T) {
	h := handler.NewTableHandler(new(mocks.MockDatasetService), nil)

	c, w := newContext(http.MethodGet, "/api/v1/tables?needs_review=maybe")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/tables?priority=urgent")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTableHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewTableHandler(svc, nil)
	id := uuid.New()
	svc.On("GetTable", mock.Anything, id).Return(&domain.TableRecord{ID: id, Score: 70}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/tables/"+id.String())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, id.String(), data["id"])
	assert.InDelta(t, 70, data["score"], 1e-9)
}

func TestTableHandler_GetByID_Errors(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewTableHandler(svc, nil)

	c, w := newContext(http.MethodGet, "/api/v1/tables/nope")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.GetByID(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := uuid.New()
	svc.On("GetTable", mock.Anything, id).Return(nil, domain.ErrNotFound)
	c, w = newContext(http.MethodGet, "/api/v1/tables/"+id.String())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.GetByID(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
}

func TestTableHandler_Merged(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewTableHandler(svc, nil)
	id := uuid.New()
	svc.On("ListMerged", mock.Anything, 0, 20).Return([]domain.MergedTable{{ID: id, Name: "SDS-7_tables_001-002"}}, 1, nil)
	svc.On("GetMerged", mock.Anything, id).Return(nil, errors.New("connection refused"))

	c, w := newContext(http.MethodGet, "/api/v1/merged")
	h.ListMerged(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Meta.Total)

	c, w = newContext(http.MethodGet, "/api/v1/merged/"+id.String())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.GetMerged(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
}

func TestSearchHandler_Search(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewSearchHandler(svc, nil)
	want := domain.SearchFilters{Query: "ice", System: "NaCl-H2O", DataType: domain.ColumnMolality, Limit: 20}
	svc.On("Search", mock.Anything, want).Return([]domain.SearchHit{{RowIndex: 3}}, 1, nil)

	c, w := newContext(http.MethodGet, "/api/v1/search?q=ice&system=NaCl-H2O&type=molality")
	h.Search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)
	svc.AssertExpectations(t)
}

func TestSearchHandler_EmptySearch(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewSearchHandler(svc, nil)
	svc.On("Search", mock.Anything, mock.Anything).Return(nil, 0, domain.ErrInvalidSearch)

	c, w := newContext(http.MethodGet, "/api/v1/search")
	h.Search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SEARCH", decode(t, w).Error.Code)
}

func TestSearchHandler_Index(t *testing.T) {
	svc := new(mocks.MockDatasetService)
	h := handler.NewSearchHandler(svc, nil)
	svc.On("Index", mock.Anything).Return(&domain.MasterIndex{TotalTables: 12, MergedTables: 3}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/index")
	h.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.InDelta(t, 12, data["total_tables"], 1e-9)
}

func TestExportHandler_Redirect(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc, nil)
	svc.On("Locate", mock.Anything, "dataset.xlsx").Return(&service.ExportLocation{URL: "https://signed.example/x"}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/exports/dataset.xlsx")
	c.Params = gin.Params{{Key: "name", Value: "/dataset.xlsx"}}
	h.Download(c)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://signed.example/x", w.Header().Get("Location"))
}

func TestExportHandler_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master_index.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_tables":1}`), 0o600))

	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc, nil)
	svc.On("Locate", mock.Anything, "master_index.json").Return(&service.ExportLocation{
		Path:        path,
		Filename:    "master_index_2026-10-19.json",
		ContentType: "application/json",
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/exports/master_index.json")
	c.Params = gin.Params{{Key: "name", Value: "/master_index.json"}}
	h.Download(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "master_index_2026-10-19.json")
	assert.Equal(t, `{"total_tables":1}`, w.Body.String())
}

func TestExportHandler_NotFound(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc, nil)
	svc.On("Locate", mock.Anything, "../secrets").Return(nil, domain.ErrExportNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/exports/../secrets")
	c.Params = gin.Params{{Key: "name", Value: "/../secrets"}}
	h.Download(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/exports/")
	c.Params = gin.Params{{Key: "name", Value: "/"}}
	h.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	h := handler.NewHealthHandler(nil)

	c, w := newContext(http.MethodGet, "/healthz")
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz")
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "disabled")
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidSearch, http.StatusBadRequest, "INVALID_SEARCH"},
		{domain.ErrExportNotFound, http.StatusNotFound, "EXPORT_NOT_FOUND"},
		{domain.ErrStorageNotConfig, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
