package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend        string
	SQLiteDSN      string
	RedisURL       string
	RedisKeyPrefix string
	PostgresDSN    string
	// Scope isolates one tenant's keys from every other tenant's.
	Scope string
}

// Open constructs the configured backend wrapped with metrics.
func Open(opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case "", BackendSQLite:
		s, err = NewSQLiteStore(opts.SQLiteDSN, opts.Scope)
	case BackendRedis:
		s, err = NewRedisStore(opts.RedisURL, opts.RedisKeyPrefix, opts.Scope)
	case BackendPostgres:
		s, err = NewPostgresStore(opts.PostgresDSN, opts.Scope)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithMetrics(s), nil
}
