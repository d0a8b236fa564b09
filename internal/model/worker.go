package model

import "time"

// PendingJob one claimable unit of work served to polling workers
type PendingJob struct {
	JobDeviceID string `json:"job_device_id"`
	JobID       string `json:"job_id"`
	ConfigID    string `json:"config_id"`
	DeviceID    string `json:"device_id"`
	DeviceUUID  string `json:"device_uuid"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
}

// TraceCreateRequest worker payload persisting a collected trace
type TraceCreateRequest struct {
	TraceID         string    `json:"trace_id"`
	TraceName       string    `json:"trace_name" binding:"required"`
	TraceFilename   string    `json:"trace_filename" binding:"required"`
	TraceTimestamp  time.Time `json:"trace_timestamp"`
	DeviceID        string    `json:"device_id"`
	HostName        string    `json:"host_name"`
	ConfigurationID string    `json:"configuration_id"`
}
