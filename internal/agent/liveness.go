package agent

import (
	"context"

	"tracehub/internal/model"
	"tracehub/pkg/constants"
	"tracehub/pkg/logger"
)

// scanOnce runs one adb scan: registers and reports every attached device,
// then sweeps serials the host no longer sees. A serial with a trace in
// flight is reported busy so its liveness window stays open without masking
// the collection.
func (a *Agent) scanOnce(ctx context.Context) {
	devices, err := a.adb.Devices(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "adb scan failed: %v", err)
		return
	}

	onlineSerials := make([]string, 0, len(devices))
	for _, d := range devices {
		if !d.Online() {
			continue
		}
		onlineSerials = append(onlineSerials, d.Serial)

		status := constants.DeviceStatusOnline.String()
		if a.isTracing(d.Serial) {
			status = constants.DeviceStatusBusy.String()
		}

		report := &model.DeviceReport{
			DeviceUUID: d.Serial,
			DeviceName: a.deviceName(ctx, d.Serial),
			LastStatus: status,
			Host:       a.cfg.HostName,
		}
		if err := a.client.ReportDevice(ctx, report); err != nil {
			logger.WarnCtx(ctx, "failed to report device %s: %v", d.Serial, err)
		}
	}

	err = a.client.SweepDevices(ctx, &model.SweepRequest{
		Host:          a.cfg.HostName,
		OnlineSerials: onlineSerials,
	})
	if err != nil {
		logger.WarnCtx(ctx, "device sweep failed: %v", err)
	}
}

// deviceName resolves a device's display name, cached per serial. The model
// string never changes for a physical device, so one getprop is enough.
func (a *Agent) deviceName(ctx context.Context, serial string) string {
	a.mu.Lock()
	name, ok := a.names[serial]
	a.mu.Unlock()
	if ok {
		return name
	}

	name, err := a.adb.Model(ctx, serial)
	if err != nil || name == "" {
		logger.DebugCtx(ctx, "could not resolve model for %s: %v", serial, err)
		return serial
	}

	a.mu.Lock()
	a.names[serial] = name
	a.mu.Unlock()
	return name
}
