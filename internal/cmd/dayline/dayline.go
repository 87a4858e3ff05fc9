// Package dayline parses service flags and launches the dayline service.
package dayline

import (
	"context"
	"flag"

	"github.com/louisbranch/dayline/internal/app"
	entrypoint "github.com/louisbranch/dayline/internal/platform/cmd"
)

// Config holds dayline command configuration.
type Config struct {
	Port int `env:"DAYLINE_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The dayline gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the dayline gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDayline, func(context.Context) error {
		return app.Run(ctx, cfg.Port)
	})
}
