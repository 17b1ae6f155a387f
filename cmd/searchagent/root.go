package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/config"
	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/metrics"
)

var (
	cfgFile     string
	metricsAddr string
	logLevel    string
	noSearch    bool
)

var rootCmd = &cobra.Command{
	Use:           "searchagent",
	Short:         "Chat with a local model that searches the web when it needs to",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default searchagent.yaml in . or ./configs)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.Flags().BoolVar(&noSearch, "no-search", false, "never search the web")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if noSearch {
		cfg.Search.Enabled = false
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("search agent ready",
		zap.String("model", cfg.Model.Name),
		zap.String("model_provider", cfg.Model.Provider),
		zap.String("search_provider", cfg.Search.Provider),
		zap.Bool("search_enabled", cfg.Search.Enabled))

	return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app)
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
