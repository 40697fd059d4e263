// Package app wires configuration, logging, tracing and the prediction center client
// together for the command line programs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caspfetch/internal/components/telemetry"
	"caspfetch/internal/config"
	"caspfetch/internal/scrapers/predictioncenter"
	"caspfetch/lib/serviceutil"

	"go.opentelemetry.io/otel"
)

type Options struct {
	ServiceName string
	UserAgent   string
	ConfigPath  string
	Verbose     bool
}

type App struct {
	Config    config.Config
	Client    *predictioncenter.Client
	Telemetry telemetry.API
	exporters telemetry.Exporters
}

func Start(ctx context.Context, opts Options) (App, error) {
	serviceutil.InitSlog(opts.Verbose)
	if opts.Verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	cfg, err := config.Load(opts.ConfigPath, config.Defaults(opts.UserAgent))
	if err != nil {
		return App{}, fmt.Errorf("read config: %w", err)
	}

	exporters, err := telemetry.Setup(ctx, opts.ServiceName, cfg.Otlp)
	if err != nil {
		return App{}, fmt.Errorf("setup telemetry: %w", err)
	}

	var tel telemetry.API = telemetry.SlogAPI{}
	if exporters.MetricsEnabled() {
		meter := otel.Meter("caspfetch")
		tel, err = telemetry.NewMeterAPI(tel, meter)
		if err != nil {
			return App{}, fmt.Errorf("setup metrics: %w", err)
		}
		telemetry.InstrumentPerfStats(ctx, meter, time.Second*10)
	}

	var output telemetry.MessageOutput
	if cfg.HttpDumpDir != "" {
		fsOutput, err := telemetry.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			return App{}, fmt.Errorf("http dump dir: %w", err)
		}
		output = fsOutput
	}

	client, err := predictioncenter.NewClient(cfg.ClientOptions(tel, output))
	if err != nil {
		return App{}, err
	}

	return App{
		Config:    cfg,
		Client:    client,
		Telemetry: tel,
		exporters: exporters,
	}, nil
}

// Close flushes pending spans and metrics, it uses its own context since `ctx` of the run may
// already be cancelled.
func (a App) Close() {
	err := a.exporters.Shutdown(context.Background())
	if err != nil {
		slog.Warn("failed to shutdown telemetry exporters", "err", err)
	}
}
