// Package store provides the public factory for the entity persistence
// layer while keeping the dialect and connection internals private.
package store

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/internal/entity"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

type options struct {
	log zerolog.Logger
}

// Option configures Open.
type Option func(*options)

// WithLogger routes store logging to log.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Open connects to the backend named by cfg.Backend, bootstraps the schema
// and returns the entity and settings stores sharing one backend handle.
// Closing the entity store releases the handle for both.
//
// Example:
//
//	entities, settings, err := store.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/county",
//	})
//	defer entities.Close()
func Open(ctx context.Context, cfg types.Config, opts ...Option) (types.EntityStore, types.SettingStore, error) {
	o := options{log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}

	m, err := conn.Open(ctx, cfg, o.log)
	if err != nil {
		return nil, nil, err
	}
	return entity.New(m, entity.WithLogger(o.log)), entity.NewSettings(m), nil
}
