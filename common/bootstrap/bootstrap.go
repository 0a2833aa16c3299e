// Package bootstrap assembles the shared process-wide components every
// runtime entrypoint needs — config, logger, catalog database, connector
// bus client, telemetry — exactly once, in dependency order, and returns
// a Components value whose Shutdown tears them back down in reverse.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zenohflow/runtime/common/config"
	"github.com/zenohflow/runtime/common/db"
	"github.com/zenohflow/runtime/common/logger"
	"github.com/zenohflow/runtime/common/telemetry"
	"github.com/zenohflow/runtime/internal/connector"
)

// Setup initializes the components common to both cmd/runtime and
// cmd/runtime-api.
func Setup(ctx context.Context, runtimeName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{}

	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(runtimeName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Runtime.LogLevel,
			components.Config.Runtime.LogFormat,
		)
	}

	components.Logger.Info("initializing runtime",
		"runtime", runtimeName,
		"environment", components.Config.Runtime.Environment,
	)

	if !options.skipDB {
		components.Logger.Info("connecting to catalog database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		components.addCleanup(func() error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}
	}

	if !options.skipBus {
		components.Logger.Info("connecting to connector bus", "addr", components.Config.Bus.Addr)
		components.Redis = redis.NewClient(&redis.Options{
			Addr:     components.Config.Bus.Addr,
			Password: components.Config.Bus.Password,
			DB:       components.Config.Bus.DB,
		})
		if err := components.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to connector bus: %w", err)
		}
		components.Bus = connector.NewInstrumentedRedisBus(components.Redis, components.Logger)
		components.addCleanup(func() error {
			components.Logger.Info("closing connector bus client")
			return components.Redis.Close()
		})
	}

	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Config.Telemetry.MetricsPort,
			components.Logger,
		)
		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
		}
	}

	components.Logger.Info("runtime initialization complete",
		"runtime", runtimeName,
		"db", components.DB != nil,
		"bus", components.Redis != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error.
func MustSetup(ctx context.Context, runtimeName string, opts ...Option) *Components {
	components, err := Setup(ctx, runtimeName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup runtime %s: %v", runtimeName, err))
	}
	return components
}
