package mysql

import (
	"context"
	"fmt"

	"tracehub/pkg/constants"
	"tracehub/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// JobRepository handles job request persistence in MySQL
type JobRepository struct {
	ds *Datastore
}

// NewJobRepository creates a new job repository
func NewJobRepository(ds *Datastore) *JobRepository {
	return &JobRepository{ds: ds}
}

// Create creates a job request row. Callers that need the children created
// atomically wrap this in ExecTx together with JobDeviceRepository.Create.
func (r *JobRepository) Create(ctx context.Context, job *model.JobRequest) error {
	return r.ds.DB(ctx).Omit("Devices").Create(job).Error
}

// Get retrieves a job with its device children eager-loaded. Returns nil
// when absent.
func (r *JobRepository) Get(ctx context.Context, jobID string) (*model.JobRequest, error) {
	var job model.JobRequest
	err := r.ds.DB(ctx).Preload("Devices").Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// UpdateStatus sets the aggregate status and summary of a job. The write is
// guarded in SQL so a recompute racing a terminal write can never regress a
// finished job.
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID, status, summary string) error {
	updates := map[string]interface{}{"status": status}
	if summary != "" {
		updates["result_summary"] = summary
	}
	return r.ds.DB(ctx).Model(&model.JobRequest{}).
		Where("job_id = ? AND status NOT IN ?", jobID, constants.TerminalJobStatuses()).
		Updates(updates).Error
}

// ListNonTerminal retrieves jobs that may still change state, oldest first.
// Drives the periodic aggregate reconcile.
func (r *JobRepository) ListNonTerminal(ctx context.Context) ([]*model.JobRequest, error) {
	var jobs []*model.JobRequest
	err := r.ds.DB(ctx).
		Where("status IN ?", []string{
			constants.JobStatusPending.String(),
			constants.JobStatusRunning.String(),
		}).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list non-terminal jobs: %w", err)
	}
	return jobs, nil
}

// List retrieves recent jobs with children, newest first.
func (r *JobRepository) List(ctx context.Context, limit int) ([]*model.JobRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	var jobs []*model.JobRequest
	err := r.ds.DB(ctx).Preload("Devices").
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ExecTx executes a function within a transaction
// This allows multiple repository operations to be executed atomically
func (r *JobRepository) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.ds.ExecTx(ctx, fn)
}
