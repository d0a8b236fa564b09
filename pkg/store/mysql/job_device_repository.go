package mysql

import (
	"context"
	"fmt"

	"tracehub/pkg/constants"
	"tracehub/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// PendingWork is the projection served to polling workers: a pending
// JobDevice joined with its job parameters and device serial.
type PendingWork struct {
	JobDeviceID string `gorm:"column:job_device_id" json:"job_device_id"`
	JobID       string `gorm:"column:job_id" json:"job_id"`
	ConfigID    string `gorm:"column:config_id" json:"config_id"`
	DeviceID    string `gorm:"column:device_id" json:"device_id"`
	DeviceUUID  string `gorm:"column:device_uuid" json:"device_uuid"`
	Duration    int    `gorm:"column:duration" json:"duration"`
	Status      string `gorm:"column:status" json:"status"`
}

// JobDeviceRepository handles per-device work unit persistence in MySQL
type JobDeviceRepository struct {
	ds *Datastore
}

// NewJobDeviceRepository creates a new job device repository
func NewJobDeviceRepository(ds *Datastore) *JobDeviceRepository {
	return &JobDeviceRepository{ds: ds}
}

// Create creates a job device row
func (r *JobDeviceRepository) Create(ctx context.Context, jd *model.JobDevice) error {
	return r.ds.DB(ctx).Create(jd).Error
}

// Get retrieves a job device by id. Returns nil when absent.
func (r *JobDeviceRepository) Get(ctx context.Context, id string) (*model.JobDevice, error) {
	var jd model.JobDevice
	err := r.ds.DB(ctx).Where("id = ?", id).First(&jd).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job device: %w", err)
	}
	return &jd, nil
}

// ListByJob retrieves all children of a job
func (r *JobDeviceRepository) ListByJob(ctx context.Context, jobID string) ([]*model.JobDevice, error) {
	var jds []*model.JobDevice
	err := r.ds.DB(ctx).Where("job_id = ?", jobID).Order("created_at ASC").Find(&jds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job devices: %w", err)
	}
	return jds, nil
}

// UpdateStatusIf updates status with an atomic state transition (compare and
// swap): the row is written only while its current status equals from. A
// false return means another worker already claimed or finished the row;
// callers treat that as a lost claim, not an error.
func (r *JobDeviceRepository) UpdateStatusIf(ctx context.Context, id string, from, to string) (bool, error) {
	result := r.ds.DB(ctx).Model(&model.JobDevice{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if result.Error != nil {
		return false, fmt.Errorf("failed to update job device status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatus updates status without a transition guard. Used for terminal
// writes where the worker already owns the row.
func (r *JobDeviceRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	result := r.ds.DB(ctx).Model(&model.JobDevice{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update job device status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPending retrieves all pending job devices joined with job parameters
// and device serials, oldest job first. The server does not filter on
// attachment; workers match serials against their own adb scan.
func (r *JobDeviceRepository) ListPending(ctx context.Context) ([]*PendingWork, error) {
	var work []*PendingWork
	err := r.ds.DB(ctx).Model(&model.JobDevice{}).
		Select("job_devices.id AS job_device_id",
			"job_devices.job_id",
			"job_requests.config_id",
			"job_devices.device_id",
			"devices.device_uuid",
			"job_requests.duration",
			"job_devices.status").
		Joins("JOIN job_requests ON job_requests.job_id = job_devices.job_id").
		Joins("JOIN devices ON devices.device_id = job_devices.device_id").
		Where("job_devices.status = ?", constants.JobDeviceStatusPending.String()).
		Order("job_requests.created_at ASC, job_devices.created_at ASC").
		Scan(&work).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending work: %w", err)
	}
	return work, nil
}
