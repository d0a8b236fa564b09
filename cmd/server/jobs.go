package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"tracehub/internal/jobs"
	"tracehub/internal/service"
	"tracehub/pkg/dlock"
	"tracehub/pkg/logger"
)

func (app *Application) initJobs() error {
	if app.registryService == nil || app.jobService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background task registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)

	decayInterval := time.Duration(app.config.Registry.LivenessWindow) * time.Second
	if decayInterval <= 0 {
		decayInterval = 30 * time.Second
	}

	// Distributed locks keep multiple control-plane replicas from running
	// the same maintenance cycle at once. With Redis unavailable the locks
	// degrade to single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}

	deviceDecayLock := dlock.NewRedisLock(redisClient, "maintenance:device-decay-lock")
	jobReconcileLock := dlock.NewRedisLock(redisClient, "maintenance:job-reconcile-lock")

	manager.Register(newDeviceDecayJob(decayInterval, app.registryService, deviceDecayLock))
	manager.Register(newJobReconcileJob(5*time.Second, app.jobService, jobReconcileLock))

	app.jobsManager = manager
	return nil
}

// deviceDecayJob marks devices offline whose reports stopped arriving.
// Safety net for hosts that vanished without a final sweep.
type deviceDecayJob struct {
	interval        time.Duration
	registryService *service.RegistryService
	distributedLock dlock.DistributedLock
}

func newDeviceDecayJob(interval time.Duration, svc *service.RegistryService, lock dlock.DistributedLock) jobs.Job {
	return &deviceDecayJob{
		interval:        interval,
		registryService: svc,
		distributedLock: lock,
	}
}

func (j *deviceDecayJob) Name() string {
	return "device-decay"
}

func (j *deviceDecayJob) Interval() time.Duration {
	return j.interval
}

func (j *deviceDecayJob) Run(ctx context.Context) error {
	if j.registryService == nil {
		return fmt.Errorf("registry service not configured")
	}

	// Try to acquire distributed lock
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running device decay, skipping this cycle")
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	decayed, err := j.registryService.DecayStale(ctx)
	if err != nil {
		return err
	}
	if decayed > 0 {
		logger.InfoCtx(ctx, "marked %d stale devices offline", decayed)
	}
	return nil
}

// jobReconcileJob recomputes aggregates for non-terminal jobs. Covers
// terminal child writes whose follow-up recompute never landed.
type jobReconcileJob struct {
	interval        time.Duration
	jobService      *service.JobService
	distributedLock dlock.DistributedLock
}

func newJobReconcileJob(interval time.Duration, svc *service.JobService, lock dlock.DistributedLock) jobs.Job {
	return &jobReconcileJob{
		interval:        interval,
		jobService:      svc,
		distributedLock: lock,
	}
}

func (j *jobReconcileJob) Name() string {
	return "job-reconcile"
}

func (j *jobReconcileJob) Interval() time.Duration {
	return j.interval
}

func (j *jobReconcileJob) Run(ctx context.Context) error {
	if j.jobService == nil {
		return fmt.Errorf("job service not configured")
	}

	// Try to acquire distributed lock
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running job reconcile, skipping this cycle")
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	return j.jobService.ReconcileAggregates(ctx)
}
