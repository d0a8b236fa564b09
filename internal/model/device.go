package model

import "time"

// DeviceView registry row merged with live state
type DeviceView struct {
	DeviceID    string     `json:"device_id"`
	DeviceUUID  string     `json:"device_uuid"`
	DeviceName  string     `json:"device_name"`
	Status      string     `json:"status"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	CurrentHost string     `json:"current_host,omitempty"`
}

// DeviceReport worker liveness report for one attached device
type DeviceReport struct {
	DeviceName string `json:"device_name"`
	DeviceUUID string `json:"device_uuid" binding:"required"`
	LastStatus string `json:"last_status"`
	Host       string `json:"host"`
}

// SweepRequest worker payload marking unobserved devices offline
type SweepRequest struct {
	Host          string   `json:"host"`
	OnlineSerials []string `json:"online_serials"`
}
