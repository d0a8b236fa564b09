package agent

import (
	"context"

	"tracehub/internal/model"
	"tracehub/pkg/logger"
)

// pollOnce runs one dispatch cycle: fetch all claimable work, keep only the
// units whose device is attached here and idle, and dispatch each under the
// concurrency cap. Work for unattached devices stays pending on the server
// until some host sees the device.
func (a *Agent) pollOnce(ctx context.Context) {
	work, err := a.client.ListWork(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "work poll failed: %v", err)
		return
	}
	if len(work) == 0 {
		return
	}

	devices, err := a.adb.Devices(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "adb scan during poll failed: %v", err)
		return
	}
	attached := make(map[string]bool, len(devices))
	for _, d := range devices {
		attached[d.Serial] = d.Online()
	}

	for _, unit := range work {
		if !attached[unit.DeviceUUID] {
			continue
		}
		if a.isTracing(unit.DeviceUUID) {
			continue
		}
		a.dispatch(ctx, unit)
	}
}

// dispatch runs one unit on its own goroutine, bounded by the semaphore.
// A full semaphore skips the unit; the next poll will pick it up again since
// it is still pending on the server.
func (a *Agent) dispatch(ctx context.Context, unit *model.PendingJob) {
	select {
	case a.sem <- struct{}{}:
	default:
		logger.DebugCtx(ctx, "at concurrency cap, leaving unit %s for the next poll", unit.JobDeviceID)
		return
	}

	if !a.markTracing(unit.DeviceUUID, unit.JobDeviceID) {
		<-a.sem
		return
	}

	name := a.deviceName(ctx, unit.DeviceUUID)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			a.clearTracing(unit.DeviceUUID)
			<-a.sem
		}()

		if err := a.pipeline.Run(ctx, unit, name); err != nil {
			logger.WarnCtx(ctx, "unit %s failed: %v", unit.JobDeviceID, err)
		}
	}()
}
