package constants

// JobStatus aggregate status of a job request
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusPartial   JobStatus = "partial"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusPartial
}

// TerminalJobStatuses returns the statuses a job can never leave, for use in
// SQL guards.
func TerminalJobStatuses() []string {
	return []string{
		JobStatusCompleted.String(),
		JobStatusFailed.String(),
		JobStatusPartial.String(),
	}
}

// JobDeviceStatus per-device unit of work status
type JobDeviceStatus string

const (
	JobDeviceStatusPending   JobDeviceStatus = "pending"
	JobDeviceStatusRunning   JobDeviceStatus = "running"
	JobDeviceStatusCompleted JobDeviceStatus = "completed"
	JobDeviceStatusFailed    JobDeviceStatus = "failed"
)

func (s JobDeviceStatus) String() string {
	return string(s)
}

// Terminal reports whether the job device has finished.
func (s JobDeviceStatus) Terminal() bool {
	return s == JobDeviceStatusCompleted || s == JobDeviceStatusFailed
}

// Progress update labels emitted by the worker pipeline. These are free-form
// labels on job_updates rows, not JobDevice states.
const (
	UpdateStatusStarting  = "starting"
	UpdateStatusRunning   = "running"
	UpdateStatusUploading = "uploading"
	UpdateStatusCompleted = "completed"
	UpdateStatusFailed    = "failed"
)
