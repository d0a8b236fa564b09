package model

// Stream event types emitted over the SSE connection.
const (
	StreamEventConnected = "connected"
	StreamEventUpdate    = "update"
	StreamEventHeartbeat = "heartbeat"
	StreamEventError     = "error"
)

// StreamEvent one SSE frame payload. Update frames carry the progress
// projection; heartbeat and error frames carry only Type (and Message).
type StreamEvent struct {
	Type         string `json:"type"`
	DeviceID     string `json:"device_id,omitempty"`
	DeviceSerial string `json:"device_serial,omitempty"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`

	// Seq is the internal stream cursor; not part of the wire frame.
	Seq int64 `json:"-"`
}
