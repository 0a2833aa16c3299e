package bootstrap

import (
	"github.com/zenohflow/runtime/common/config"
	"github.com/zenohflow/runtime/common/db"
	"github.com/zenohflow/runtime/common/logger"
)

// Option configures the bootstrap process.
type Option func(*options)

type options struct {
	skipDB        bool
	skipBus       bool
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	dbInitHook    func(*db.DB) error
}

// WithoutDB skips catalog database initialization, for processes (e.g.
// cmd/runtime running a single local flow) that never touch the catalog.
func WithoutDB() Option {
	return func(o *options) { o.skipDB = true }
}

// WithoutBus skips Redis bus client initialization, for processes that
// never instantiate cross-runtime connectors.
func WithoutBus() Option {
	return func(o *options) { o.skipBus = true }
}

// WithoutTelemetry skips telemetry initialization.
func WithoutTelemetry() Option {
	return func(o *options) { o.skipTelemetry = true }
}

// WithCustomLogger uses a custom logger instead of creating one.
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) { o.customLogger = log }
}

// WithCustomConfig uses a custom config instead of loading from env.
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) { o.customConfig = cfg }
}

// WithDBInitHook runs a custom function after DB initialization, for
// running catalog migrations.
func WithDBInitHook(hook func(*db.DB) error) Option {
	return func(o *options) { o.dbInitHook = hook }
}

func defaultOptions() *options {
	return &options{}
}
