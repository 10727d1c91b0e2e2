// Package cache keeps rendered pages for a short time so repeated reads of the
// same page skip the database and the template engine.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"travelblog/config"
)

// Key identifies one cached rendering. Scope groups the variants of a page
// (for example every rendering of one post) so they can be cleared together.
type Key struct {
	Scope   string
	Variant string
}

// hash returns the 16 hex character xxHash of the key.
func (k Key) hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(k.Scope+"|"+k.Variant))
}

type Store interface {
	// Get returns the page stored under key. A missing or expired entry is
	// reported with ok == false and a nil error.
	Get(ctx context.Context, key Key) (page []byte, ok bool, err error)
	Set(ctx context.Context, key Key, page []byte, ttl time.Duration) error
	// Clear removes every entry in scope, or every entry when scope is empty,
	// and reports how many were removed.
	Clear(ctx context.Context, scope string) (int, error)
}

// New builds the store selected by CACHE_BACKEND. It returns a nil Store for
// the "none" backend.
func New(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, nil
	case "redis":
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("page cache connected", slog.String("backend", "redis"))
		return NewRedisStore(client, DefaultPrefix), nil
	default:
		logger.Info("page cache ready", slog.String("backend", "file"), slog.String("dir", cfg.CacheDir))
		return NewFileStore(cfg.CacheDir), nil
	}
}
