package model

import "time"

// Host MySQL model for the hosts table. Each worker host authenticates to
// the worker API with its HostKey; LastSeen is touched on every
// authenticated request.
type Host struct {
	HostName  string     `gorm:"column:host_name;type:varchar(255);primaryKey" json:"host_name"`
	HostKey   string     `gorm:"column:host_key;type:varchar(255);not null;uniqueIndex:idx_host_key" json:"-"`
	HostType  string     `gorm:"column:host_type;type:varchar(64)" json:"host_type"`
	LastSeen  *time.Time `gorm:"column:last_seen;type:datetime(3)" json:"last_seen"`
	CreatedAt time.Time  `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
}

// TableName specifies the table name for Host
func (Host) TableName() string {
	return "hosts"
}
