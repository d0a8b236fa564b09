package model

import "time"

// Device MySQL model for the devices table. Identity rows are durable; the
// live status view is additionally cached in Redis with a liveness TTL.
type Device struct {
	DeviceID    string     `gorm:"column:device_id;type:char(36);primaryKey" json:"device_id"`
	DeviceUUID  string     `gorm:"column:device_uuid;type:varchar(255);not null;uniqueIndex:idx_device_uuid" json:"device_uuid"`
	DeviceName  string     `gorm:"column:device_name;type:varchar(255)" json:"device_name"`
	Status      string     `gorm:"column:status;type:varchar(32);not null;default:offline;index:idx_device_status" json:"status"`
	LastSeen    *time.Time `gorm:"column:last_seen;type:datetime(3)" json:"last_seen"`
	CurrentHost string     `gorm:"column:current_host;type:varchar(255);index:idx_current_host" json:"current_host"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for Device
func (Device) TableName() string {
	return "devices"
}
