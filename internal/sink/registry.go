package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	backend "github.com/redis/go-redis/v9"

	"github.com/roach88/riskflow/internal/config"
	"github.com/roach88/riskflow/internal/store"
)

// Registry names.
const (
	NameGeneric = "generic"
	NameSQLite  = "sqlite"
	NameRedis   = "redis"
)

// Env carries the resources a sink factory may need.
type Env struct {
	Store       *store.Store
	Redis       *backend.Client
	RedisPrefix string
	BatchSize   int
	Logger      *slog.Logger
}

// Factory builds a sink from its environment.
type Factory func(env Env) (BulkSink, error)

var errNoStore = errors.New("no store configured")

var registry = map[string]Factory{
	NameGeneric: func(env Env) (BulkSink, error) {
		return NewGeneric(env.Store, env.BatchSize, env.Logger), nil
	},
	NameSQLite: func(env Env) (BulkSink, error) {
		if env.Store == nil {
			return nil, errNoStore
		}
		return NewSQLite(env.Store, env.BatchSize, 0, env.Logger), nil
	},
	NameRedis: func(env Env) (BulkSink, error) {
		if env.Redis == nil {
			return nil, errors.New("no redis client configured")
		}
		return NewRedis(env.Redis, env.RedisPrefix, env.BatchSize, env.Logger), nil
	},
}

// Register adds or replaces a named factory. It is meant for init-time use.
func Register(name string, f Factory) {
	registry[name] = f
}

// Names returns the registered names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named sink.
func New(name string, env Env) (BulkSink, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown result sink %q (known: %v)", name, Names())
	}
	s, err := f(env)
	if err != nil {
		return nil, fmt.Errorf("result sink %q: %w", name, err)
	}
	return s, nil
}

// Resolve picks the sink named by the resultBulkInsert key of source.
//
// Resolution never fails: an absent key selects the generic sink, and an
// unknown name or a failing factory falls back to it with a warning.
func Resolve(source config.Source, env Env) BulkSink {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name, ok := "", false
	if source != nil {
		name, ok = source.Lookup(config.KeyResultBulkInsert)
	}
	if !ok || name == "" {
		logger.Debug("no result sink configured, using generic", "key", config.KeyResultBulkInsert)
		return NewGeneric(env.Store, env.BatchSize, env.Logger)
	}
	s, err := New(name, env)
	if err != nil {
		logger.Warn("result sink unavailable, falling back to generic",
			"key", config.KeyResultBulkInsert,
			"configured", name,
			"error", err,
		)
		return NewGeneric(env.Store, env.BatchSize, env.Logger)
	}
	return s
}
