package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soltab/internal/consolidate"
	"soltab/internal/domain"
	"soltab/internal/service"
	"soltab/mocks"
)

func newPipeline(exports service.ExportService, datasets service.DatasetService, publish bool) *service.Pipeline {
	batch := service.NewBatchRunner(catalogOf(refs(2)...), &stubProcessor{}, service.BatchConfig{Concurrency: 2}, nil)
	return service.NewPipeline(batch, consolidate.New(consolidate.DefaultOptions(), nil), exports, datasets, publish, nil)
}

func TestPipeline_Run(t *testing.T) {
	exports := &mocks.MockExportService{}
	datasets := &mocks.MockDatasetService{}
	written := []service.Artifact{{Name: service.DatasetFile}}

	exports.On("Write", mock.Anything, mock.AnythingOfType("*domain.Dataset"), mock.Anything).Return(written, nil)
	exports.On("Publish", mock.Anything, written).Return([]service.Artifact{{Name: service.DatasetFile, Location: "s3://b/dataset.json"}}, nil)
	datasets.On("Store", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Dataset")).Return(nil)

	sum, ds, err := newPipeline(exports, datasets, true).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, 2, sum.Tables)
	assert.Equal(t, 2, sum.Processed)
	assert.True(t, sum.Published)
	assert.True(t, sum.Stored)
	assert.Equal(t, "s3://b/dataset.json", sum.Artifacts[0].Location)
	exports.AssertExpectations(t)
	datasets.AssertExpectations(t)
}

func TestPipeline_SinkFailuresAreNotFatal(t *testing.T) {
	exports := &mocks.MockExportService{}
	datasets := &mocks.MockDatasetService{}
	written := []service.Artifact{{Name: service.DatasetFile}}

	exports.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(written, nil)
	exports.On("Publish", mock.Anything, written).Return(nil, domain.ErrStorageNotConfig)
	datasets.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

	sum, _, err := newPipeline(exports, datasets, true).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.Published)
	assert.False(t, sum.Stored)
	assert.Equal(t, written, sum.Artifacts)
}

func TestPipeline_WriteErrorIsFatal(t *testing.T) {
	exports := &mocks.MockExportService{}
	exports.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	_, _, err := newPipeline(exports, nil, false).Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	exports.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
