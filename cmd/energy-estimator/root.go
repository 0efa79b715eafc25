package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/rshade/finfocus-energy-engine/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "energy-estimator",
		Short:         "Estimate energy and embodied carbon of compute workloads",
		Long:          "Runs CPU-utilization time series through the ccf, aws-curve or tdp-curve strategy and prints energy (kWh) and embodied emissions (gCO2e) per row.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level (trace|debug|info|warn|error); overrides "+config.EnvLogLevel)
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "log format (console|json)")

	cmd.AddCommand(newRunCmd(opts), newListInstancesCmd(opts))
	return cmd
}

// newLogger builds the process logger writing to w. The --log-level flag
// wins over def.
func (o *rootOptions) newLogger(w io.Writer, def string) (zerolog.Logger, error) {
	level := o.logLevel
	if level == "" {
		level = def
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch o.logFormat {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid --log-format %q (expected console|json)", o.logFormat)
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "energy-estimator").Logger()
	carbon.SetLogger(logger)
	return logger, nil
}

// envLevel returns ENERGY_ENGINE_LOG_LEVEL when it names a valid level, else def.
func envLevel(def string) string {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvLogLevel))); v != "" {
		if _, err := zerolog.ParseLevel(v); err == nil {
			return v
		}
	}
	return def
}
