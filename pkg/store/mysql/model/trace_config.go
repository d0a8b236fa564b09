package model

import "time"

// TraceConfig MySQL model for the trace_configs table. ConfigText is an
// opaque recipe interpreted only by the collector on the worker host.
type TraceConfig struct {
	ConfigID        string    `gorm:"column:config_id;type:char(36);primaryKey" json:"config_id"`
	ConfigName      string    `gorm:"column:config_name;type:varchar(255);not null" json:"config_name"`
	TracingTool     string    `gorm:"column:tracing_tool;type:varchar(64);not null;default:perfetto" json:"tracing_tool"`
	ConfigText      string    `gorm:"column:config_text;type:text" json:"config_text"`
	DefaultDuration int       `gorm:"column:default_duration;not null;default:10" json:"default_duration"`
	CreatedAt       time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for TraceConfig
func (TraceConfig) TableName() string {
	return "trace_configs"
}
