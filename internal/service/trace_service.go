package service

import (
	"context"
	"fmt"
	"time"

	"tracehub/internal/model"
	"tracehub/pkg/logger"
	"tracehub/pkg/storage"
	mysqlstore "tracehub/pkg/store/mysql"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/google/uuid"
)

const downloadURLExpiry = 15 * time.Minute

// TraceService manages collected trace metadata and the artifact store
// behind it. Metadata lives in MySQL, bytes in object storage; the two are
// linked by the stored object name.
type TraceService struct {
	traces *mysqlstore.TraceRepository
	store  storage.ObjectStore
	bucket string
}

// NewTraceService creates a trace service. bucket is the default bucket for
// trace artifacts.
func NewTraceService(traces *mysqlstore.TraceRepository, store storage.ObjectStore, bucket string) *TraceService {
	return &TraceService{traces: traces, store: store, bucket: bucket}
}

// Create persists trace metadata reported by a worker after upload.
func (s *TraceService) Create(ctx context.Context, req *model.TraceCreateRequest) (*storemodel.Trace, error) {
	trace := &storemodel.Trace{
		TraceID:         req.TraceID,
		TraceName:       req.TraceName,
		TraceTimestamp:  req.TraceTimestamp,
		TraceFilename:   req.TraceFilename,
		DeviceID:        req.DeviceID,
		HostName:        req.HostName,
		ConfigurationID: req.ConfigurationID,
	}
	if trace.TraceID == "" {
		trace.TraceID = uuid.NewString()
	}
	if trace.TraceTimestamp.IsZero() {
		trace.TraceTimestamp = time.Now().UTC()
	}
	if err := s.traces.Create(ctx, trace); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "recorded trace %s (%s) from host %s", trace.TraceID, trace.TraceFilename, trace.HostName)
	return trace, nil
}

// Get retrieves trace metadata by id.
func (s *TraceService) Get(ctx context.Context, traceID string) (*storemodel.Trace, error) {
	trace, err := s.traces.Get(ctx, traceID)
	if err != nil {
		return nil, err
	}
	if trace == nil {
		return nil, fmt.Errorf("trace %s: %w", traceID, ErrNotFound)
	}
	return trace, nil
}

// List retrieves recent traces, newest first.
func (s *TraceService) List(ctx context.Context, limit int) ([]*storemodel.Trace, error) {
	return s.traces.List(ctx, limit)
}

// Upload stores raw trace bytes under objectName. An empty bucket falls back
// to the configured trace bucket.
func (s *TraceService) Upload(ctx context.Context, bucket, objectName string, data []byte) error {
	if objectName == "" {
		return fmt.Errorf("%w: empty object name", ErrInvalidArgument)
	}
	if bucket == "" {
		bucket = s.bucket
	}
	return s.store.Upload(ctx, bucket, objectName, data)
}

// DownloadURL returns a short-lived presigned link for a stored trace.
func (s *TraceService) DownloadURL(ctx context.Context, traceID string) (string, error) {
	trace, err := s.Get(ctx, traceID)
	if err != nil {
		return "", err
	}
	return s.store.PresignedURL(ctx, s.bucket, trace.TraceFilename, downloadURLExpiry)
}
