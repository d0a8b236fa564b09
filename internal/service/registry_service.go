package service

import (
	"context"
	"fmt"
	"time"

	"tracehub/internal/model"
	"tracehub/pkg/constants"
	"tracehub/pkg/logger"
	mysqlstore "tracehub/pkg/store/mysql"
	storemodel "tracehub/pkg/store/mysql/model"
	redisstore "tracehub/pkg/store/redis"
)

// RegistryService tracks device identity (MySQL) and live status (Redis,
// TTL'd so unreported devices decay to offline).
type RegistryService struct {
	devices *mysqlstore.DeviceRepository
	states  *redisstore.DeviceStateRepository
	window  time.Duration
}

// NewRegistryService creates a registry service. window is the liveness
// window used both for state TTLs and stale-row decay.
func NewRegistryService(devices *mysqlstore.DeviceRepository, states *redisstore.DeviceStateRepository, window time.Duration) *RegistryService {
	return &RegistryService{
		devices: devices,
		states:  states,
		window:  window,
	}
}

// Upsert registers a device by serial, or refreshes its name. Idempotent.
func (s *RegistryService) Upsert(ctx context.Context, serial, name string) (*storemodel.Device, error) {
	if serial == "" {
		return nil, fmt.Errorf("%w: empty serial", ErrInvalidArgument)
	}
	return s.devices.Upsert(ctx, serial, name)
}

// ReportLiveness records a status report from the owning host. Writes go to
// both MySQL (durable columns) and Redis (TTL'd live view). Concurrent
// reports from racing hosts are last-write-wins.
func (s *RegistryService) ReportLiveness(ctx context.Context, serial, status, host string) error {
	now := time.Now().UTC()
	if err := s.devices.UpdateLiveness(ctx, serial, status, host, now); err != nil {
		return fmt.Errorf("failed to record liveness for %s: %w", serial, err)
	}

	state := &redisstore.DeviceState{
		Serial:   serial,
		Status:   status,
		Host:     host,
		LastSeen: now,
	}
	if err := s.states.Save(ctx, state); err != nil {
		// Durable row is already written; the live view will self-heal on
		// the next report.
		logger.WarnCtx(ctx, "failed to cache device state for %s: %v", serial, err)
	}
	return nil
}

// Sweep marks devices offline that hostname owns but did not observe in its
// latest scan, and drops their live state so the change is visible
// immediately. Returns the number of devices transitioned.
func (s *RegistryService) Sweep(ctx context.Context, hostname string, onlineSerials []string) (int64, error) {
	online := make(map[string]struct{}, len(onlineSerials))
	for _, serial := range onlineSerials {
		online[serial] = struct{}{}
	}

	owned, err := s.devices.ListByHost(ctx, hostname)
	if err != nil {
		return 0, err
	}
	var sweptSerials []string
	for _, d := range owned {
		if _, ok := online[d.DeviceUUID]; ok {
			continue
		}
		if d.Status != constants.DeviceStatusOffline.String() {
			sweptSerials = append(sweptSerials, d.DeviceUUID)
		}
	}

	swept, err := s.devices.SweepOffline(ctx, hostname, onlineSerials)
	if err != nil {
		return 0, err
	}

	if len(sweptSerials) > 0 {
		if err := s.states.Delete(ctx, sweptSerials...); err != nil {
			logger.WarnCtx(ctx, "failed to drop swept device state: %v", err)
		}
	}
	return swept, nil
}

// Lookup resolves a device by generated id or adb serial.
func (s *RegistryService) Lookup(ctx context.Context, idOrSerial string) (*storemodel.Device, error) {
	device, err := s.devices.GetByID(ctx, idOrSerial)
	if err != nil {
		return nil, err
	}
	if device == nil {
		device, err = s.devices.GetBySerial(ctx, idOrSerial)
		if err != nil {
			return nil, err
		}
	}
	if device == nil {
		return nil, fmt.Errorf("device %s: %w", idOrSerial, ErrNotFound)
	}
	return device, nil
}

// List returns every registered device with its live status merged in: a
// present Redis key wins, an expired one reads offline.
func (s *RegistryService) List(ctx context.Context) ([]*model.DeviceView, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}

	serials := make([]string, 0, len(devices))
	for _, d := range devices {
		serials = append(serials, d.DeviceUUID)
	}
	states, err := s.states.GetAll(ctx, serials)
	if err != nil {
		logger.WarnCtx(ctx, "failed to fetch live device state, serving durable rows: %v", err)
		states = map[string]*redisstore.DeviceState{}
	}

	views := make([]*model.DeviceView, 0, len(devices))
	for _, d := range devices {
		view := &model.DeviceView{
			DeviceID:    d.DeviceID,
			DeviceUUID:  d.DeviceUUID,
			DeviceName:  d.DeviceName,
			Status:      constants.DeviceStatusOffline.String(),
			LastSeen:    d.LastSeen,
			CurrentHost: d.CurrentHost,
		}
		if state, ok := states[d.DeviceUUID]; ok {
			view.Status = state.Status
			view.CurrentHost = state.Host
			seen := state.LastSeen
			view.LastSeen = &seen
		}
		views = append(views, view)
	}
	return views, nil
}

// DecayStale marks durable rows offline whose last report is older than the
// liveness window. Safety net for hosts that vanished without a final sweep;
// the Redis keys have already expired on their own.
func (s *RegistryService) DecayStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.window)
	return s.devices.MarkStaleOffline(ctx, cutoff)
}
