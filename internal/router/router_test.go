package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
	"soltab/internal/handler"
	"soltab/internal/metrics"
	"soltab/internal/router"
	"soltab/internal/service"
	"soltab/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return w
}

func TestSetup_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	datasets := new(mocks.MockDatasetService)
	exports := new(mocks.MockExportService)
	datasets.On("Index", mock.Anything).Return(&domain.MasterIndex{TotalTables: 2}, nil)
	datasets.On("ListTables", mock.Anything, mock.Anything).Return([]domain.TableRecord{}, 0, nil)
	exports.On("Locate", mock.Anything, "tables/a.csv").Return(&service.ExportLocation{URL: "https://signed.example/a"}, nil)

	r := router.Setup(
		router.Options{Metrics: metrics.NewRecorder(reg), Gatherer: reg},
		handler.NewTableHandler(datasets, nil),
		handler.NewSearchHandler(datasets, nil),
		handler.NewExportHandler(exports, nil),
		handler.NewHealthHandler(nil),
	)

	assert.Equal(t, http.StatusOK, serve(r, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/api/v1/index").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/api/v1/tables").Code)
	assert.Equal(t, http.StatusFound, serve(r, "/api/v1/exports/tables/a.csv").Code)

	w := serve(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "soltab_http_requests_total")
}

func TestSetup_WithoutDatabase(t *testing.T) {
	r := router.Setup(router.Options{}, nil, nil, nil, handler.NewHealthHandler(nil))

	assert.Equal(t, http.StatusOK, serve(r, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, "/api/v1/search?q=ice").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, "/metrics").Code)
}
