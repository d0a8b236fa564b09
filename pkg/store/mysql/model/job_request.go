package model

import "time"

// JobRequest MySQL model for the job_requests table. The parent aggregate of
// a fan-out; its status is recomputed from the child JobDevice rows.
type JobRequest struct {
	JobID         string    `gorm:"column:job_id;type:char(36);primaryKey" json:"job_id"`
	ConfigID      string    `gorm:"column:config_id;type:char(36);not null;index:idx_job_config" json:"config_id"`
	Status        string    `gorm:"column:status;type:varchar(32);not null;default:pending;index:idx_job_status" json:"status"`
	Duration      int       `gorm:"column:duration;not null;default:10" json:"duration"`
	ResultSummary string    `gorm:"column:result_summary;type:varchar(255)" json:"result_summary"`
	CreatedAt     time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3);index:idx_job_created" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`

	Devices []JobDevice `gorm:"foreignKey:JobID;references:JobID" json:"devices,omitempty"`
}

// TableName specifies the table name for JobRequest
func (JobRequest) TableName() string {
	return "job_requests"
}
