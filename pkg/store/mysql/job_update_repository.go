package mysql

import (
	"context"
	"fmt"
	"time"

	"tracehub/pkg/store/mysql/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobUpdateRepository handles append-only progress events in MySQL
type JobUpdateRepository struct {
	ds *Datastore
}

// NewJobUpdateRepository creates a new job update repository
func NewJobUpdateRepository(ds *Datastore) *JobUpdateRepository {
	return &JobUpdateRepository{ds: ds}
}

// Append inserts a progress event. UpdateID and EventTime are assigned here
// when the caller leaves them empty; Seq is assigned by the database.
func (r *JobUpdateRepository) Append(ctx context.Context, update *model.JobUpdate) error {
	if update.UpdateID == "" {
		update.UpdateID = uuid.NewString()
	}
	if update.EventTime.IsZero() {
		update.EventTime = time.Now().UTC()
	}
	if err := r.ds.DB(ctx).Create(update).Error; err != nil {
		return fmt.Errorf("failed to append job update: %w", err)
	}
	return nil
}

// ListAfter retrieves updates for a job with seq strictly greater than
// afterSeq, in insertion order. The poll primitive behind the SSE stream.
func (r *JobUpdateRepository) ListAfter(ctx context.Context, jobID string, afterSeq int64, limit int) ([]*model.JobUpdate, error) {
	if limit <= 0 {
		limit = 500
	}
	var updates []*model.JobUpdate
	err := r.ds.DB(ctx).
		Where("job_id = ? AND seq > ?", jobID, afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job updates: %w", err)
	}
	return updates, nil
}

// SeqBefore returns the highest seq whose event_time predates since, scoped
// to a job. Subscribing with that cursor replays everything from since on.
// Returns 0 when the job has no earlier events.
func (r *JobUpdateRepository) SeqBefore(ctx context.Context, jobID string, since time.Time) (int64, error) {
	var update model.JobUpdate
	err := r.ds.DB(ctx).
		Where("job_id = ? AND event_time < ?", jobID, since).
		Order("seq DESC").
		First(&update).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve stream cursor: %w", err)
	}
	return update.Seq, nil
}
