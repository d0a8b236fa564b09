package mysql

import (
	"context"
	"fmt"
	"time"

	"tracehub/pkg/constants"
	"tracehub/pkg/store/mysql/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository handles device identity persistence in MySQL
type DeviceRepository struct {
	ds *Datastore
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(ds *Datastore) *DeviceRepository {
	return &DeviceRepository{ds: ds}
}

// Upsert creates a device keyed by serial or refreshes its name.
// Idempotent: re-registering an existing serial keeps the generated id.
func (r *DeviceRepository) Upsert(ctx context.Context, serial, name string) (*model.Device, error) {
	device := &model.Device{
		DeviceID:   uuid.NewString(),
		DeviceUUID: serial,
		DeviceName: name,
		Status:     constants.DeviceStatusOffline.String(),
	}

	err := r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_name", "updated_at"}),
	}).Create(device).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	// Re-read so the caller sees the canonical row (existing id on conflict).
	return r.GetBySerial(ctx, serial)
}

// GetByID retrieves a device by its generated id. Returns nil when absent.
func (r *DeviceRepository) GetByID(ctx context.Context, deviceID string) (*model.Device, error) {
	var device model.Device
	err := r.ds.DB(ctx).Where("device_id = ?", deviceID).First(&device).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// GetBySerial retrieves a device by adb serial. Returns nil when absent.
func (r *DeviceRepository) GetBySerial(ctx context.Context, serial string) (*model.Device, error) {
	var device model.Device
	err := r.ds.DB(ctx).Where("device_uuid = ?", serial).First(&device).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device by serial: %w", err)
	}
	return &device, nil
}

// List retrieves all registered devices
func (r *DeviceRepository) List(ctx context.Context) ([]*model.Device, error) {
	var devices []*model.Device
	err := r.ds.DB(ctx).Order("device_name ASC").Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// ListByHost retrieves devices currently owned by a host
func (r *DeviceRepository) ListByHost(ctx context.Context, hostname string) ([]*model.Device, error) {
	var devices []*model.Device
	err := r.ds.DB(ctx).Where("current_host = ?", hostname).Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices by host: %w", err)
	}
	return devices, nil
}

// UpdateLiveness records a liveness report from the owning host.
// Last-write-wins: a device moved between hosts takes the latest reporter.
func (r *DeviceRepository) UpdateLiveness(ctx context.Context, serial, status, host string, seen time.Time) error {
	return r.ds.DB(ctx).Model(&model.Device{}).
		Where("device_uuid = ?", serial).
		Updates(map[string]interface{}{
			"status":       status,
			"current_host": host,
			"last_seen":    seen,
		}).Error
}

// SweepOffline marks devices offline in one conditional update: rows owned by
// hostname whose serial was not in the host's latest online scan. Returns the
// number of rows transitioned.
func (r *DeviceRepository) SweepOffline(ctx context.Context, hostname string, onlineSerials []string) (int64, error) {
	query := r.ds.DB(ctx).Model(&model.Device{}).
		Where("current_host = ? AND status <> ?", hostname, constants.DeviceStatusOffline.String())
	if len(onlineSerials) > 0 {
		query = query.Where("device_uuid NOT IN ?", onlineSerials)
	}

	result := query.Update("status", constants.DeviceStatusOffline.String())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep devices offline: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkStaleOffline marks devices offline whose last report is older than
// the cutoff. Used by the control-plane decay job as a safety net for hosts
// that vanished without a final sweep.
func (r *DeviceRepository) MarkStaleOffline(ctx context.Context, before time.Time) (int64, error) {
	result := r.ds.DB(ctx).Model(&model.Device{}).
		Where("status <> ? AND (last_seen IS NULL OR last_seen < ?)", constants.DeviceStatusOffline.String(), before).
		Update("status", constants.DeviceStatusOffline.String())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark stale devices offline: %w", result.Error)
	}
	return result.RowsAffected, nil
}
