package service

import (
	"context"
	"errors"
	"fmt"

	"tracehub/pkg/logger"
	mysqlstore "tracehub/pkg/store/mysql"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfigService manages trace config recipes. Configs are unversioned;
// editing one does not affect jobs whose workers already fetched the text.
type ConfigService struct {
	configs *mysqlstore.ConfigRepository
}

// NewConfigService creates a config service
func NewConfigService(configs *mysqlstore.ConfigRepository) *ConfigService {
	return &ConfigService{configs: configs}
}

// Create creates a trace config
func (s *ConfigService) Create(ctx context.Context, cfg *storemodel.TraceConfig) (*storemodel.TraceConfig, error) {
	if cfg.ConfigName == "" {
		return nil, fmt.Errorf("%w: config name is required", ErrInvalidArgument)
	}
	if cfg.ConfigText == "" {
		return nil, fmt.Errorf("%w: config text is required", ErrInvalidArgument)
	}
	if cfg.ConfigID == "" {
		cfg.ConfigID = uuid.NewString()
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "created trace config %s (%s)", cfg.ConfigID, cfg.ConfigName)
	return cfg, nil
}

// Get retrieves a trace config by id
func (s *ConfigService) Get(ctx context.Context, configID string) (*storemodel.TraceConfig, error) {
	cfg, err := s.configs.Get(ctx, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config %s: %w", configID, ErrNotFound)
	}
	return cfg, nil
}

// List retrieves all trace configs
func (s *ConfigService) List(ctx context.Context) ([]*storemodel.TraceConfig, error) {
	return s.configs.List(ctx)
}

// Update overwrites a trace config
func (s *ConfigService) Update(ctx context.Context, cfg *storemodel.TraceConfig) error {
	err := s.configs.Update(ctx, cfg)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("config %s: %w", cfg.ConfigID, ErrNotFound)
	}
	return err
}

// Delete removes a trace config
func (s *ConfigService) Delete(ctx context.Context, configID string) error {
	return s.configs.Delete(ctx, configID)
}
