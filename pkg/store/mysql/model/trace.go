package model

import "time"

// Trace MySQL model for the traces table. One row per collected artifact;
// TraceFilename is the object-store key.
type Trace struct {
	TraceID         string    `gorm:"column:trace_id;type:char(36);primaryKey" json:"trace_id"`
	TraceName       string    `gorm:"column:trace_name;type:varchar(255);not null" json:"trace_name"`
	TraceTimestamp  time.Time `gorm:"column:trace_timestamp;type:datetime(3);not null;index:idx_trace_ts" json:"trace_timestamp"`
	TraceFilename   string    `gorm:"column:trace_filename;type:varchar(512);not null" json:"trace_filename"`
	DeviceID        string    `gorm:"column:device_id;type:char(36);index:idx_trace_device" json:"device_id"`
	HostName        string    `gorm:"column:host_name;type:varchar(255)" json:"host_name"`
	ConfigurationID string    `gorm:"column:configuration_id;type:char(36)" json:"configuration_id"`
}

// TableName specifies the table name for Trace
func (Trace) TableName() string {
	return "traces"
}
