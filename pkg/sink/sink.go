// Package sink stores content records and reports whether each one was new,
// changed or already up to date, using the record's content digest.
package sink

import (
	"context"
	"fmt"

	"behancesync/pkg/config"
	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
	"behancesync/pkg/record"
)

// Status is the outcome of storing one record
type Status string

const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
)

// Sink receives records. Implementations are safe for concurrent use.
type Sink interface {
	CreateRecord(ctx context.Context, rec *record.Record) (Status, error)
	Close() error
}

// Lister is implemented by sinks that can read records back
type Lister interface {
	List(ctx context.Context, recordType string) ([]*record.Record, error)
}

// New opens the sink selected by cfg.Driver
func New(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (Sink, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "sink")

	var (
		s   Sink
		err error
	)
	switch cfg.Driver {
	case config.StoreSQLite:
		s, err = OpenSQLite(ctx, cfg.SQLite.Path)
	case config.StoreRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	case config.StoreJSONL:
		s, err = OpenJSONL(cfg.JSONL.Path)
	case config.StoreMemory, "":
		s = NewMemory()
	default:
		return nil, errs.New(errs.ErrorTypeConfiguration, fmt.Sprintf("unknown store driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStore, "failed to open "+cfg.Driver+" store")
	}

	log.DebugWithFields("Record store opened", map[string]interface{}{"driver": cfg.Driver})
	return s, nil
}

// key identifies a record within a store
func key(rec *record.Record) string {
	return rec.Internal.Type + "/" + rec.ID
}

func validate(rec *record.Record) error {
	if rec == nil || rec.ID == "" || rec.Internal.Type == "" {
		return errs.New(errs.ErrorTypeStore, "record needs an id and a type")
	}
	return nil
}
