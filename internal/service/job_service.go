package service

import (
	"context"
	"fmt"

	"tracehub/internal/model"
	"tracehub/pkg/constants"
	"tracehub/pkg/logger"
	mysqlstore "tracehub/pkg/store/mysql"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/google/uuid"
)

// JobService implements job fan-out: one parent request expands into one
// claimable unit per target device, and the parent status is recomputed from
// the children.
type JobService struct {
	jobs       *mysqlstore.JobRepository
	jobDevices *mysqlstore.JobDeviceRepository
	updates    *mysqlstore.JobUpdateRepository
	configs    *mysqlstore.ConfigRepository
	registry   *RegistryService
}

// NewJobService creates a job service
func NewJobService(
	jobs *mysqlstore.JobRepository,
	jobDevices *mysqlstore.JobDeviceRepository,
	updates *mysqlstore.JobUpdateRepository,
	configs *mysqlstore.ConfigRepository,
	registry *RegistryService,
) *JobService {
	return &JobService{
		jobs:       jobs,
		jobDevices: jobDevices,
		updates:    updates,
		configs:    configs,
		registry:   registry,
	}
}

// CreateJob validates the request, then atomically creates the parent job
// and one JobDevice per target. Targets may be device ids or adb serials.
func (s *JobService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (*model.JobView, error) {
	if len(req.Devices) == 0 {
		return nil, fmt.Errorf("%w: job needs at least one device", ErrInvalidArgument)
	}
	if req.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidArgument)
	}

	cfg, err := s.configs.Get(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config %s: %w", req.ConfigID, ErrNotFound)
	}

	duration := req.Duration
	if duration == 0 {
		duration = cfg.DefaultDuration
	}

	// Resolve every target before writing anything. An unknown target fails
	// the whole request; partially created jobs never exist.
	devices := make([]*storemodel.Device, 0, len(req.Devices))
	for _, target := range req.Devices {
		device, err := s.registry.Lookup(ctx, target)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}

	job := &storemodel.JobRequest{
		JobID:    uuid.NewString(),
		ConfigID: cfg.ConfigID,
		Status:   constants.JobStatusPending.String(),
		Duration: duration,
	}

	err = s.jobs.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.jobs.Create(txCtx, job); err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		for _, device := range devices {
			jd := &storemodel.JobDevice{
				ID:       uuid.NewString(),
				JobID:    job.JobID,
				DeviceID: device.DeviceID,
				Status:   constants.JobDeviceStatusPending.String(),
			}
			if err := s.jobDevices.Create(txCtx, jd); err != nil {
				return fmt.Errorf("failed to create job device: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "created job %s with %d devices, config %s, duration %ds",
		job.JobID, len(devices), cfg.ConfigID, duration)
	return s.GetJob(ctx, job.JobID)
}

// GetJob returns the job projection with per-device statuses. Device names
// are resolved best-effort; a missing row falls back to the id.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*model.JobView, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return s.toView(ctx, job), nil
}

// ListJobs returns recent job projections, newest first.
func (s *JobService) ListJobs(ctx context.Context, limit int) ([]*model.JobView, error) {
	jobs, err := s.jobs.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*model.JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, s.toView(ctx, job))
	}
	return views, nil
}

func (s *JobService) toView(ctx context.Context, job *storemodel.JobRequest) *model.JobView {
	names := make(map[string]string, len(job.Devices))
	for _, jd := range job.Devices {
		if device, err := s.registry.Lookup(ctx, jd.DeviceID); err == nil {
			names[jd.DeviceID] = device.DeviceName
		}
	}
	return newJobView(job, names)
}

// newJobView builds the client projection of a job. names maps device id to
// display name; a missing entry leaves the name empty.
func newJobView(job *storemodel.JobRequest, names map[string]string) *model.JobView {
	view := &model.JobView{
		JobID:         job.JobID,
		ConfigID:      job.ConfigID,
		Status:        job.Status,
		Duration:      job.Duration,
		ResultSummary: job.ResultSummary,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
		Devices:       make([]model.JobDeviceView, 0, len(job.Devices)),
	}
	for _, jd := range job.Devices {
		view.Devices = append(view.Devices, model.JobDeviceView{
			ID:         jd.ID,
			DeviceID:   jd.DeviceID,
			DeviceName: names[jd.DeviceID],
			Status:     jd.Status,
		})
	}
	return view
}

// UpdateJobStatus sets the aggregate status directly. Terminal jobs never
// regress; a late write against a finished job is dropped.
func (s *JobService) UpdateJobStatus(ctx context.Context, jobID, status, summary string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if constants.JobStatus(job.Status).Terminal() {
		logger.WarnCtx(ctx, "dropping status write %s for terminal job %s", status, jobID)
		return nil
	}
	return s.jobs.UpdateStatus(ctx, jobID, status, summary)
}

// UpdateJobDeviceStatus transitions one unit of work. A move to running is a
// claim: it only succeeds from pending, and a lost race returns ErrClaimLost.
// Terminal moves are unconditional and trigger an aggregate recompute.
func (s *JobService) UpdateJobDeviceStatus(ctx context.Context, jobDeviceID, status string) error {
	jd, err := s.jobDevices.Get(ctx, jobDeviceID)
	if err != nil {
		return err
	}
	if jd == nil {
		return fmt.Errorf("job device %s: %w", jobDeviceID, ErrNotFound)
	}

	switch constants.JobDeviceStatus(status) {
	case constants.JobDeviceStatusRunning:
		claimed, err := s.jobDevices.UpdateStatusIf(ctx, jobDeviceID,
			constants.JobDeviceStatusPending.String(),
			constants.JobDeviceStatusRunning.String())
		if err != nil {
			return err
		}
		if !claimed {
			return fmt.Errorf("job device %s: %w", jobDeviceID, ErrClaimLost)
		}
		return s.RecomputeAggregate(ctx, jd.JobID)
	case constants.JobDeviceStatusCompleted, constants.JobDeviceStatusFailed:
		if err := s.jobDevices.UpdateStatus(ctx, jobDeviceID, status); err != nil {
			return err
		}
		return s.RecomputeAggregate(ctx, jd.JobID)
	default:
		return fmt.Errorf("%w: unknown job device status %q", ErrInvalidArgument, status)
	}
}

// AppendJobUpdate appends a progress event to the job's stream. The device
// serial is denormalized onto the row here so stream frames carry it without
// a per-event join.
func (s *JobService) AppendJobUpdate(ctx context.Context, jobID string, update *model.JobProgressUpdate) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	var serial string
	if device, err := s.registry.Lookup(ctx, update.DeviceID); err == nil {
		serial = device.DeviceUUID
	} else {
		logger.WarnCtx(ctx, "could not resolve serial for update on %s: %v", update.DeviceID, err)
	}

	return s.updates.Append(ctx, &storemodel.JobUpdate{
		JobID:        jobID,
		DeviceID:     update.DeviceID,
		DeviceSerial: serial,
		Status:       update.Status,
		Message:      update.Message,
		TraceID:      update.TraceID,
	})
}

// ListPendingWork returns all claimable units joined with job parameters.
func (s *JobService) ListPendingWork(ctx context.Context) ([]*mysqlstore.PendingWork, error) {
	return s.jobDevices.ListPending(ctx)
}

// RecomputeAggregate derives the parent status from the children and writes
// it when it changed. Terminal parents are left alone.
func (s *JobService) RecomputeAggregate(ctx context.Context, jobID string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if constants.JobStatus(job.Status).Terminal() {
		return nil
	}

	statuses := make([]constants.JobDeviceStatus, 0, len(job.Devices))
	for _, jd := range job.Devices {
		statuses = append(statuses, constants.JobDeviceStatus(jd.Status))
	}

	next, summary := computeAggregate(statuses)
	if next.String() == job.Status {
		return nil
	}

	logger.InfoCtx(ctx, "job %s aggregate %s -> %s", jobID, job.Status, next)
	return s.jobs.UpdateStatus(ctx, jobID, next.String(), summary)
}

// ReconcileAggregates recomputes every non-terminal job. Safety net for
// terminal child writes whose recompute was lost mid-flight.
func (s *JobService) ReconcileAggregates(ctx context.Context) error {
	jobs, err := s.jobs.ListNonTerminal(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if err := s.RecomputeAggregate(ctx, job.JobID); err != nil {
			logger.WarnCtx(ctx, "failed to reconcile job %s: %v", job.JobID, err)
		}
	}
	return nil
}

// computeAggregate derives a parent status from child statuses. With all
// children terminal the result is completed, failed, or partial with a
// counted summary; any activity short of that reads running, and an untouched
// fan-out stays pending.
func computeAggregate(statuses []constants.JobDeviceStatus) (constants.JobStatus, string) {
	if len(statuses) == 0 {
		return constants.JobStatusPending, ""
	}

	var completed, failed int
	for _, st := range statuses {
		switch st {
		case constants.JobDeviceStatusCompleted:
			completed++
		case constants.JobDeviceStatusFailed:
			failed++
		}
	}

	total := len(statuses)
	if completed+failed < total {
		if completed+failed > 0 {
			return constants.JobStatusRunning, ""
		}
		for _, st := range statuses {
			if st == constants.JobDeviceStatusRunning {
				return constants.JobStatusRunning, ""
			}
		}
		return constants.JobStatusPending, ""
	}

	summary := fmt.Sprintf("Completed: %d/%d successful, %d/%d failed", completed, total, failed, total)
	switch {
	case failed == 0:
		return constants.JobStatusCompleted, summary
	case completed == 0:
		return constants.JobStatusFailed, summary
	default:
		return constants.JobStatusPartial, summary
	}
}
