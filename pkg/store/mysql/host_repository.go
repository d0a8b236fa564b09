package mysql

import (
	"context"
	"fmt"
	"time"

	"tracehub/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// HostRepository handles worker host credentials in MySQL
type HostRepository struct {
	ds *Datastore
}

// NewHostRepository creates a new host repository
func NewHostRepository(ds *Datastore) *HostRepository {
	return &HostRepository{ds: ds}
}

// GetByKey resolves a host by its bearer credential. Returns nil for an
// unknown key.
func (r *HostRepository) GetByKey(ctx context.Context, hostKey string) (*model.Host, error) {
	var host model.Host
	err := r.ds.DB(ctx).Where("host_key = ?", hostKey).First(&host).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get host by key: %w", err)
	}
	return &host, nil
}

// TouchLastSeen records activity for a host. Called on every authenticated
// worker request.
func (r *HostRepository) TouchLastSeen(ctx context.Context, hostName string) error {
	return r.ds.DB(ctx).Model(&model.Host{}).
		Where("host_name = ?", hostName).
		Update("last_seen", time.Now().UTC()).Error
}

// Create registers a new host credential
func (r *HostRepository) Create(ctx context.Context, host *model.Host) error {
	return r.ds.DB(ctx).Create(host).Error
}

// List retrieves all registered hosts
func (r *HostRepository) List(ctx context.Context) ([]*model.Host, error) {
	var hosts []*model.Host
	err := r.ds.DB(ctx).Order("host_name ASC").Find(&hosts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	return hosts, nil
}
