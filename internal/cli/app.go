// Package cli wires a Hive from command-line options: logging, state backend,
// shard directory, metrics and the push-channel stream manager.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/hivemesh"
	"github.com/aretw0/hivemesh/internal/metrics"
	httpAdapter "github.com/aretw0/hivemesh/pkg/adapters/http"
	"github.com/aretw0/hivemesh/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/hivemesh/pkg/adapters/redis"
	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/persistence/middleware"
	"github.com/aretw0/hivemesh/pkg/ports"
	"github.com/aretw0/hivemesh/pkg/registry"
)

// Environment variables holding flag defaults.
const (
	EnvRedisAddr = "HIVEMESH_REDIS_ADDR"
	EnvStateKey  = "HIVEMESH_STATE_KEY"
)

// Options contains everything needed to build a Hive from the command line.
type Options struct {
	ConfigPath  string
	ShardDir    string
	RedisAddr   string
	StateKey    string
	LogLevel    string
	Debug       bool
	CallTimeout time.Duration
	HiveID      string
}

// App is a booted Hive plus the resources that must be released with it.
type App struct {
	Hive    *hivemesh.Hive
	Streams *httpAdapter.StreamManager
	Logger  *slog.Logger
	closers []func() error
}

// Close releases the state backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build creates and boots a Hive. The config file is optional; without it
// the hive boots empty. Documents in ShardDir are loaded after boot.
func Build(ctx context.Context, opts Options) (*App, error) {
	logger := createLogger(opts.LogLevel, opts.Debug)
	app := &App{
		Streams: httpAdapter.NewStreamManager(),
		Logger:  logger,
	}
	app.Streams.SetLogger(logger)

	metrics.RegisterMetrics()
	hiveOpts := []hivemesh.Option{
		hivemesh.WithLogger(logger),
		hivemesh.WithRegistry(registry.Standard()),
		hivemesh.WithLifecycleHooks(app.Streams.Hooks()),
		hivemesh.WithLifecycleHooks(metrics.Hooks(func() int {
			if app.Hive == nil {
				return 0
			}
			return app.Hive.Status().ShardCount
		})),
	}
	if opts.Debug {
		hiveOpts = append(hiveOpts, hivemesh.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if opts.CallTimeout > 0 {
		hiveOpts = append(hiveOpts, hivemesh.WithCallTimeout(opts.CallTimeout))
	}
	if opts.HiveID != "" {
		hiveOpts = append(hiveOpts, hivemesh.WithID(opts.HiveID))
	}
	if opts.ShardDir != "" {
		hiveOpts = append(hiveOpts, hivemesh.WithShardDir(opts.ShardDir))
	}

	var store ports.StateStore = memory.NewStore()
	if opts.RedisAddr != "" {
		rs := redisAdapter.New(opts.RedisAddr, "", 0)
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis unreachable at %s: %w", opts.RedisAddr, err)
		}
		app.closers = append(app.closers, rs.Close)
		store = rs
		hiveOpts = append(hiveOpts, hivemesh.WithLocker(redisAdapter.NewLocker(rs.Client(), "hivemesh:")))
		logger.Info("using redis state backend", "addr", opts.RedisAddr)
	}
	if opts.StateKey != "" {
		key, err := middleware.ParseKey(opts.StateKey)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("invalid state key: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		store = middleware.Chain(store, mw)
		logger.Info("shard state encryption enabled")
	}
	hiveOpts = append(hiveOpts, hivemesh.WithStateStore(store))

	hive, err := hivemesh.New(hiveOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Hive = hive

	var config any
	if opts.ConfigPath != "" {
		config, err = definition.LoadFile(opts.ConfigPath)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	if err := hive.Boot(ctx, config); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("boot failed: %w", err)
	}
	if _, err := hive.LoadDefinitions(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}
