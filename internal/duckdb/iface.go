package duckdb

import "github.com/tinytelemetry/swiper/internal/model"

var (
	_ model.DeletionRecorder = (*Store)(nil)
	_ model.DeletionReader   = (*Store)(nil)
)
