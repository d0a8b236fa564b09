package model

import "time"

// JobDevice MySQL model for the job_devices table. The claimable unit of
// work: one row per (job, device) pair, claimed by workers with a
// conditional status update.
type JobDevice struct {
	ID        string    `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	JobID     string    `gorm:"column:job_id;type:char(36);not null;index:idx_jd_job" json:"job_id"`
	DeviceID  string    `gorm:"column:device_id;type:char(36);not null;index:idx_jd_device" json:"device_id"`
	Status    string    `gorm:"column:status;type:varchar(32);not null;default:pending;index:idx_jd_status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for JobDevice
func (JobDevice) TableName() string {
	return "job_devices"
}
