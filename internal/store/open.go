// Package store opens the PostStore selected by configuration.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/blackmichael/blog-admin/internal/config"
	"github.com/blackmichael/blog-admin/internal/domain"
	"github.com/blackmichael/blog-admin/internal/memory"
	"github.com/blackmichael/blog-admin/internal/mongostore"
	"github.com/blackmichael/blog-admin/internal/natskv"
	"github.com/blackmichael/blog-admin/internal/sqlstore"
)

// Store is a PostStore that owns a connection.
type Store interface {
	domain.PostStore
	io.Closer
}

type nopCloser struct {
	*memory.Store
}

func (nopCloser) Close() error { return nil }

// Open connects to the configured driver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	sc := cfg.Store
	logger = logger.With("driver", sc.Driver)

	var (
		s   Store
		err error
	)
	switch sc.Driver {
	case config.DriverMongo:
		s, err = mongostore.Open(ctx, cfg.Mongo.URI, sc.Database, sc.Collection)
	case config.DriverPostgres:
		s, err = sqlstore.Open(ctx, sqlstore.Postgres, cfg.Postgres.URL, sc.Collection)
	case config.DriverSQLite:
		s, err = sqlstore.Open(ctx, sqlstore.SQLite, cfg.SQLite.Path, sc.Collection)
	case config.DriverNATS:
		s, err = natskv.Open(ctx, cfg.NATS.URL, sc.Database, sc.Collection)
	case config.DriverMemory:
		logger.Warn("using in-memory store, posts are lost on restart")
		s = nopCloser{memory.NewStore()}
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", sc.Driver, err)
	}

	logger.Info("connected to store", "database", sc.Database, "collection", sc.Collection)
	return s, nil
}
