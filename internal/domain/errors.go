package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrGridShape        = errors.New("grid is not rectangular")
	ErrUnknownMethod    = errors.New("unknown extraction method")
	ErrNoExtraction     = errors.New("no extraction method produced a grid")
	ErrEmptyExtraction  = errors.New("extraction produced an empty grid")
	ErrInvalidSequence  = errors.New("tables do not form a mergeable sequence")
	ErrInvalidSearch    = errors.New("search query is empty")
	ErrExportNotFound   = errors.New("export not found")
	ErrStorageNotConfig = errors.New("object storage is not configured")
)
