package model

import "time"

// JobUpdate MySQL model for the job_updates table. Append-only progress
// events; Seq is the auto-increment insertion order and doubles as the
// stream cursor, so readers never re-emit or skip events.
type JobUpdate struct {
	Seq      int64  `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	UpdateID string `gorm:"column:update_id;type:char(36);not null;uniqueIndex:idx_update_id" json:"update_id"`
	JobID    string `gorm:"column:job_id;type:char(36);not null;index:idx_ju_job_seq,priority:1" json:"job_id"`
	DeviceID string `gorm:"column:device_id;type:char(36);not null" json:"device_id"`
	// DeviceSerial is denormalized at append time so stream reads never join.
	DeviceSerial string    `gorm:"column:device_serial;type:varchar(128)" json:"device_serial"`
	Status       string    `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Message      string    `gorm:"column:message;type:text" json:"message"`
	TraceID      string    `gorm:"column:trace_id;type:char(36)" json:"trace_id,omitempty"`
	EventTime    time.Time `gorm:"column:event_time;type:datetime(6);not null" json:"event_time"`
}

// TableName specifies the table name for JobUpdate
func (JobUpdate) TableName() string {
	return "job_updates"
}
