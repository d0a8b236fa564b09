package model

import "time"

// CreateJobRequest client payload to start a trace collection job
type CreateJobRequest struct {
	ConfigID string   `json:"config_id" binding:"required"`
	Devices  []string `json:"devices" binding:"required"`
	Duration int      `json:"duration"`
}

// JobDeviceView per-device status inside a job projection
type JobDeviceView struct {
	ID         string `json:"id"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name,omitempty"`
	Status     string `json:"status"`
}

// JobView job projection returned to clients
type JobView struct {
	JobID         string          `json:"job_id"`
	ConfigID      string          `json:"config_id"`
	Status        string          `json:"status"`
	Duration      int             `json:"duration"`
	ResultSummary string          `json:"result_summary,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Devices       []JobDeviceView `json:"devices"`
}

// JobProgressUpdate worker payload appending a progress event
type JobProgressUpdate struct {
	DeviceID string `json:"device_id" binding:"required"`
	Status   string `json:"status" binding:"required"`
	Message  string `json:"message,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

// JobStatusUpdate worker payload setting the aggregate job status
type JobStatusUpdate struct {
	Status        string `json:"status" binding:"required"`
	ResultSummary string `json:"result_summary,omitempty"`
}

// JobDeviceStatusUpdate worker payload transitioning one job device
type JobDeviceStatusUpdate struct {
	Status string `json:"status" binding:"required"`
}
