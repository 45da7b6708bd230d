package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scoresim/internal/config"
)

type rootOptions struct {
	configPath  string
	logLevel    string
	docs        []string
	metricsAddr string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "scoresim",
		Short:        "Step through holistic file scoring one stage at a time",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (optional; uses ./scoresim.yaml or ~/.config/scoresim/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringSliceVar(&opts.docs, "docs", nil, "File globs to load as candidates (default: built-in seed corpus)")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")

	root.AddCommand(runCmd(opts), tuiCmd(opts), pinpointCmd(opts), presetsCmd())
	return root
}

func loadConfig(opts *rootOptions) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	return cfg, nil
}

// setup loads config, builds the logger and assembles the engine on the
// real clock. The returned stop function shuts everything down.
func setup(opts *rootOptions) (*app, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, nil, err
	}
	a, err := assemble(cfg, opts.docs, clockwork.NewRealClock(), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	stopMetrics := serveMetrics(a)
	return a, func() {
		a.engine.Reset()
		stopMetrics()
		if err := a.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

func serveMetrics(a *app) func() {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
