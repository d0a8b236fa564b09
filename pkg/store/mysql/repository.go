package mysql

import (
	"fmt"

	"tracehub/pkg/store/mysql/model"
)

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	Device    *DeviceRepository
	Config    *ConfigRepository
	Job       *JobRepository
	JobDevice *JobDeviceRepository
	JobUpdate *JobUpdateRepository
	Trace     *TraceRepository
	Host      *HostRepository
}

// NewRepository creates a new MySQL repository with all sub-repositories
// and migrates the schema.
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	if err := ds.GetDB().AutoMigrate(
		&model.Device{},
		&model.TraceConfig{},
		&model.JobRequest{},
		&model.JobDevice{},
		&model.JobUpdate{},
		&model.Trace{},
		&model.Host{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Repository{
		ds:        ds,
		Device:    NewDeviceRepository(ds),
		Config:    NewConfigRepository(ds),
		Job:       NewJobRepository(ds),
		JobDevice: NewJobDeviceRepository(ds),
		JobUpdate: NewJobUpdateRepository(ds),
		Trace:     NewTraceRepository(ds),
		Host:      NewHostRepository(ds),
	}, nil
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
