package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/PratikDhanave/telescope-livewire/internal/config"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// ErrNotFound is returned by Find when no entry has the requested UUID.
var ErrNotFound = errors.New("entry not found")

// defaultListLimit applies when ListQuery.Limit is not positive.
const defaultListLimit = 50

// ListQuery selects entries of one type, newest first. BeforeSequence, when
// positive, returns only entries older than that sequence.
type ListQuery struct {
	Type           string
	Limit          int
	BeforeSequence int64
}

func (q ListQuery) normalized() ListQuery {
	if q.Type == "" {
		q.Type = models.EntryTypeRequest
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	return q
}

// Repository is the entries storage used by the recorder and the dashboard API.
type Repository interface {
	Store(ctx context.Context, entries []models.Entry) error
	List(ctx context.Context, q ListQuery) ([]models.Entry, error)
	Find(ctx context.Context, uuid string) (models.Entry, error)
	Ping(ctx context.Context) error
	Close()
}

// Open connects the repository selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg config.Config) (Repository, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DBURL)
	case config.DriverRedis:
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.RedisMaxEntries)
	case config.DriverMemory, "":
		return NewMemoryStore(cfg.MemoryMaxEntries), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
