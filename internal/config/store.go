package config

import (
	"fmt"
	"time"

	"github.com/aretw0/covenant/internal/adapters/file"
	"github.com/aretw0/covenant/pkg/adapters/memory"
	"github.com/aretw0/covenant/pkg/adapters/redis"
	"github.com/aretw0/covenant/pkg/adapters/sqlite"
	"github.com/aretw0/covenant/pkg/persistence/middleware"
	"github.com/aretw0/covenant/pkg/ports"
)

// Backend is an opened state store plus what goes with it.
type Backend struct {
	Store ports.StateStore
	// Locker is set for redis when Redis.Lock is enabled.
	Locker      ports.DistributedLocker
	Middlewares []middleware.Middleware
	Close       func() error
}

// Open builds the configured store and its middlewares.
func (c StoreConfig) Open() (*Backend, error) {
	b := &Backend{Close: func() error { return nil }}

	switch c.Backend {
	case "", "memory":
		b.Store = memory.NewStore()
	case "file":
		b.Store = file.New(c.Path)
	case "sqlite":
		path := c.Path
		if path == "" {
			path = "covenant.db"
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		b.Store, b.Close = s, s.Close
	case "redis":
		var opts []redis.Option
		if c.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Redis.Prefix))
		}
		if c.Redis.TTL != "" {
			ttl, err := time.ParseDuration(c.Redis.TTL)
			if err != nil {
				return nil, fmt.Errorf("invalid redis ttl: %w", err)
			}
			opts = append(opts, redis.WithTTL(ttl))
		}
		s := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, opts...)
		b.Store, b.Close = s, s.Close
		if c.Redis.Lock {
			b.Locker = redis.NewLocker(s.Client(), "covenant:")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}

	if c.EncryptionKey != "" {
		mw, err := c.encryption()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Middlewares = append(b.Middlewares, mw)
	}
	return b, nil
}

func (c StoreConfig) encryption() (middleware.Middleware, error) {
	active, err := middleware.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, err
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(cfg), nil
}
