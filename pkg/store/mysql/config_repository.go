package mysql

import (
	"context"
	"fmt"

	"tracehub/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// ConfigRepository handles trace recipe persistence in MySQL
type ConfigRepository struct {
	ds *Datastore
}

// NewConfigRepository creates a new trace config repository
func NewConfigRepository(ds *Datastore) *ConfigRepository {
	return &ConfigRepository{ds: ds}
}

// Create creates a new trace config
func (r *ConfigRepository) Create(ctx context.Context, cfg *model.TraceConfig) error {
	return r.ds.DB(ctx).Create(cfg).Error
}

// Get retrieves a trace config by id. Returns nil when absent.
func (r *ConfigRepository) Get(ctx context.Context, configID string) (*model.TraceConfig, error) {
	var cfg model.TraceConfig
	err := r.ds.DB(ctx).Where("config_id = ?", configID).First(&cfg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trace config: %w", err)
	}
	return &cfg, nil
}

// List retrieves all trace configs
func (r *ConfigRepository) List(ctx context.Context) ([]*model.TraceConfig, error) {
	var configs []*model.TraceConfig
	err := r.ds.DB(ctx).Order("config_name ASC").Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trace configs: %w", err)
	}
	return configs, nil
}

// Update overwrites the mutable fields of a trace config. Rows are not
// versioned; in-flight jobs keep whatever text the worker already fetched.
func (r *ConfigRepository) Update(ctx context.Context, cfg *model.TraceConfig) error {
	result := r.ds.DB(ctx).Model(&model.TraceConfig{}).
		Where("config_id = ?", cfg.ConfigID).
		Updates(map[string]interface{}{
			"config_name":      cfg.ConfigName,
			"tracing_tool":     cfg.TracingTool,
			"config_text":      cfg.ConfigText,
			"default_duration": cfg.DefaultDuration,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update trace config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a trace config
func (r *ConfigRepository) Delete(ctx context.Context, configID string) error {
	return r.ds.DB(ctx).Where("config_id = ?", configID).Delete(&model.TraceConfig{}).Error
}
