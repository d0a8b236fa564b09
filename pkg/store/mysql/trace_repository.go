package mysql

import (
	"context"
	"fmt"

	"tracehub/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// TraceRepository handles collected trace metadata in MySQL
type TraceRepository struct {
	ds *Datastore
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(ds *Datastore) *TraceRepository {
	return &TraceRepository{ds: ds}
}

// Create persists a trace row
func (r *TraceRepository) Create(ctx context.Context, trace *model.Trace) error {
	return r.ds.DB(ctx).Create(trace).Error
}

// Get retrieves a trace by id. Returns nil when absent.
func (r *TraceRepository) Get(ctx context.Context, traceID string) (*model.Trace, error) {
	var trace model.Trace
	err := r.ds.DB(ctx).Where("trace_id = ?", traceID).First(&trace).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}
	return &trace, nil
}

// List retrieves traces newest first
func (r *TraceRepository) List(ctx context.Context, limit int) ([]*model.Trace, error) {
	if limit <= 0 {
		limit = 100
	}
	var traces []*model.Trace
	err := r.ds.DB(ctx).Order("trace_timestamp DESC").Limit(limit).Find(&traces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	return traces, nil
}
