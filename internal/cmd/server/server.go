// Package server parses boneyard command flags and composes the process.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bantoinese83/boneyard/internal/app"
	"github.com/bantoinese83/boneyard/internal/domino/service"
	"github.com/bantoinese83/boneyard/internal/images"
	"github.com/bantoinese83/boneyard/internal/notify"
	entrypoint "github.com/bantoinese83/boneyard/internal/platform/cmd"
	"github.com/bantoinese83/boneyard/internal/storage"
	"github.com/bantoinese83/boneyard/internal/storage/memory"
	redisstore "github.com/bantoinese83/boneyard/internal/storage/redis"
)

// Backend names accepted by BONEYARD_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds boneyard command configuration.
type Config struct {
	HTTPAddr             string `env:"BONEYARD_HTTP_ADDR"              envDefault:":8080"`
	Backend              string `env:"BONEYARD_BACKEND"                envDefault:"memory"`
	RedisURL             string `env:"BONEYARD_REDIS_URL"              envDefault:"redis://localhost:6379/0"`
	RedisPrefix          string `env:"BONEYARD_REDIS_PREFIX"           envDefault:"domino:"`
	SetTTLSeconds        int    `env:"BONEYARD_SET_TTL_SECONDS"        envDefault:"3600"`
	SweepIntervalSeconds int    `env:"BONEYARD_SWEEP_INTERVAL_SECONDS" envDefault:"60"`
	CORSOrigins          string `env:"BONEYARD_CORS_ORIGINS"           envDefault:"*"`
	ImageBaseURL         string `env:"BONEYARD_IMAGE_BASE_URL"`
	EventBuffer          int    `env:"BONEYARD_EVENT_BUFFER"           envDefault:"16"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "boneyard HTTP listen address")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "set store backend (memory or redis)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis connection URL for the redis backend")
	fs.StringVar(&cfg.RedisPrefix, "redis-prefix", cfg.RedisPrefix, "redis key namespace prefix")
	fs.IntVar(&cfg.SetTTLSeconds, "set-ttl", cfg.SetTTLSeconds, "idle set expiry in seconds")
	fs.IntVar(&cfg.SweepIntervalSeconds, "sweep-interval", cfg.SweepIntervalSeconds, "expiry sweep interval in seconds")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "comma-separated CORS origin allow-list")
	fs.StringVar(&cfg.ImageBaseURL, "image-base-url", cfg.ImageBaseURL, "base URL for tile image references")
	fs.IntVar(&cfg.EventBuffer, "event-buffer", cfg.EventBuffer, "per-observer event queue size")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetTTL returns the configured idle expiry as a duration.
func (c Config) SetTTL() time.Duration {
	return time.Duration(c.SetTTLSeconds) * time.Second
}

// SweepInterval returns the configured sweep cadence as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Origins splits the configured CORS allow-list.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Run builds the boneyard process and serves until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBoneyard, func(context.Context) error {
		store, sweepable, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		hub := notify.NewHub(cfg.EventBuffer)
		resolver := images.New(cfg.ImageBaseURL)
		engine := service.New(store, hub, resolver)

		// Redis expires keys server side; only the memory backend needs
		// the sweeper to reap idle sets and notify their observers.
		if sweepable != nil {
			sweeper := service.NewSweeper(sweepable, hub, cfg.SweepInterval())
			go sweeper.Run(ctx)
		}

		if err := app.Run(ctx, app.Config{
			HTTPAddr:    cfg.HTTPAddr,
			CORSOrigins: cfg.Origins(),
		}, engine, resolver); err != nil {
			return fmt.Errorf("serve boneyard: %w", err)
		}
		return nil
	})
}

func openStore(ctx context.Context, cfg Config) (storage.Store, service.ExpiredSweeper, error) {
	switch strings.TrimSpace(cfg.Backend) {
	case BackendMemory, "":
		store := memory.New(cfg.SetTTL())
		log.Printf("set store backend=memory ttl=%s", cfg.SetTTL())
		return store, store, nil
	case BackendRedis:
		store, err := redisstore.Open(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.SetTTL())
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		log.Printf("set store backend=redis prefix=%s ttl=%s", cfg.RedisPrefix, cfg.SetTTL())
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q, want %s or %s", cfg.Backend, BackendMemory, BackendRedis)
	}
}
