package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracehub/internal/model"
	"tracehub/pkg/constants"
	"tracehub/pkg/logger"

	"github.com/google/uuid"
)

// workerAPI is the slice of the control-plane client the pipeline uses.
type workerAPI interface {
	UpdateJobDeviceStatus(ctx context.Context, jobDeviceID, status string) error
	AppendUpdate(ctx context.Context, jobID string, update *model.JobProgressUpdate) error
	GetConfig(ctx context.Context, configID string) (*TraceConfig, error)
	UploadTrace(ctx context.Context, objectName string, data []byte) error
	CreateTrace(ctx context.Context, req *model.TraceCreateRequest) error
}

// Pipeline executes one claimed unit of work end to end: claim, collect,
// upload, record, finish. Failures on one device never affect another; each
// unit runs this pipeline independently.
type Pipeline struct {
	api       workerAPI
	collector TraceCollector
	hostname  string
}

// NewPipeline creates a trace collection pipeline
func NewPipeline(api workerAPI, collector TraceCollector, hostname string) *Pipeline {
	return &Pipeline{
		api:       api,
		collector: collector,
		hostname:  hostname,
	}
}

// Run processes one unit of work. A lost claim returns nil; the unit belongs
// to another agent and there is nothing to report. Any later failure marks
// the unit failed with the captured message.
func (p *Pipeline) Run(ctx context.Context, job *model.PendingJob, deviceName string) error {
	err := p.api.UpdateJobDeviceStatus(ctx, job.JobDeviceID, constants.JobDeviceStatusRunning.String())
	if err != nil {
		if errors.Is(err, ErrClaimLost) {
			logger.DebugCtx(ctx, "unit %s already claimed elsewhere, skipping", job.JobDeviceID)
			return nil
		}
		return fmt.Errorf("failed to claim unit %s: %w", job.JobDeviceID, err)
	}

	if err := p.collect(ctx, job, deviceName); err != nil {
		p.fail(ctx, job, err)
		return err
	}
	return nil
}

func (p *Pipeline) collect(ctx context.Context, job *model.PendingJob, deviceName string) error {
	p.progress(ctx, job, constants.UpdateStatusStarting,
		fmt.Sprintf("Starting trace collection on %s", job.DeviceUUID), "")

	cfg, err := p.api.GetConfig(ctx, job.ConfigID)
	if err != nil {
		return fmt.Errorf("failed to fetch config %s: %w", job.ConfigID, err)
	}

	p.progress(ctx, job, constants.UpdateStatusRunning, "Collecting trace...", "")

	data, err := p.collector.Collect(ctx, job.DeviceUUID, cfg, job.Duration)
	if err != nil {
		return fmt.Errorf("trace collection failed: %w", err)
	}

	p.progress(ctx, job, constants.UpdateStatusUploading, "Uploading trace to storage...", "")

	traceID := uuid.NewString()
	objectName := fmt.Sprintf("%s-%s.perfetto-trace", traceID, cfg.ConfigName)
	if err := p.api.UploadTrace(ctx, objectName, data); err != nil {
		return fmt.Errorf("trace upload failed: %w", err)
	}

	name := deviceName
	if name == "" {
		name = job.DeviceUUID
	}
	err = p.api.CreateTrace(ctx, &model.TraceCreateRequest{
		TraceID:         traceID,
		TraceName:       fmt.Sprintf("%s - %s", cfg.ConfigName, name),
		TraceFilename:   objectName,
		TraceTimestamp:  time.Now().UTC(),
		DeviceID:        job.DeviceID,
		HostName:        p.hostname,
		ConfigurationID: job.ConfigID,
	})
	if err != nil {
		return fmt.Errorf("failed to record trace: %w", err)
	}

	if err := p.api.UpdateJobDeviceStatus(ctx, job.JobDeviceID, constants.JobDeviceStatusCompleted.String()); err != nil {
		return fmt.Errorf("failed to finish unit %s: %w", job.JobDeviceID, err)
	}
	p.progress(ctx, job, constants.UpdateStatusCompleted, "Trace collected successfully", traceID)

	logger.InfoCtx(ctx, "collected trace %s for job %s on %s", traceID, job.JobID, job.DeviceUUID)
	return nil
}

// fail marks the unit failed and appends the failure event. Both writes are
// best-effort; the server's reconcile job covers a lost terminal write.
func (p *Pipeline) fail(ctx context.Context, job *model.PendingJob, cause error) {
	logger.WarnCtx(ctx, "unit %s on %s failed: %v", job.JobDeviceID, job.DeviceUUID, cause)

	if err := p.api.UpdateJobDeviceStatus(ctx, job.JobDeviceID, constants.JobDeviceStatusFailed.String()); err != nil {
		logger.WarnCtx(ctx, "failed to mark unit %s failed: %v", job.JobDeviceID, err)
	}
	p.progress(ctx, job, constants.UpdateStatusFailed, cause.Error(), "")
}

func (p *Pipeline) progress(ctx context.Context, job *model.PendingJob, status, message, traceID string) {
	err := p.api.AppendUpdate(ctx, job.JobID, &model.JobProgressUpdate{
		DeviceID: job.DeviceID,
		Status:   status,
		Message:  message,
		TraceID:  traceID,
	})
	if err != nil {
		logger.WarnCtx(ctx, "failed to append %s update for job %s: %v", status, job.JobID, err)
	}
}
