package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/sidepost/pkg/config"
	"github.com/getmockd/sidepost/pkg/mockserver"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	host      string
	port      int
	logLevel  string
	logFormat string
	logFile   string
	printURL  bool
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	sf := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock JSON:API server",
		Long: `Run a mock JSON:API server for the models in the configuration.

The server accepts sideposting documents on POST /{type} and
PATCH /{type}/{id}, applying each related record's method in one
transaction. Seed records are loaded at startup and restored by
POST /__sidepost/reset.`,
		Example: `  # Serve the models in ./sidepost.yaml
  sidepost serve

  # Pick a free port and print the base URL
  sidepost serve --port 0 --print-url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, flags, sf)
		},
	}

	cmd.Flags().StringVar(&sf.host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&sf.port, "port", "p", 0, "Listen port, 0 picks a free one (overrides server.port)")
	cmd.Flags().StringVar(&sf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&sf.logFormat, "log-format", "", "Log format: text, json")
	cmd.Flags().StringVar(&sf.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&sf.printURL, "print-url", false, "Print the server base URL to stdout once listening")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, flags *globalFlags, sf *serveFlags) error {
	cfg, err := loadConfig(flags.configPath, func(c *config.Config) {
		if cmd.Flags().Changed("host") {
			c.Server.Host = sf.host
		}
		if cmd.Flags().Changed("port") {
			c.Server.Port = sf.port
		}
		if sf.logLevel != "" {
			c.Log.Level = sf.logLevel
		}
		if sf.logFormat != "" {
			c.Log.Format = sf.logFormat
		}
	})
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr(), sf.logFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	metrics := mockserver.NewMetricsObserver()
	handler, err := newMockHandler(cfg, log, metrics)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Address(), err)
	}
	url := "http://" + ln.Addr().String()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if sf.printURL {
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}
	log.Info("server started", "url", url, "types", handler.Store().Types())

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	snap := metrics.Snapshot()
	log.Info("server stopped",
		"saves", snap.SaveCount,
		"reads", snap.ReadCount,
		"lists", snap.ListCount,
		"deletes", snap.DeleteCount,
		"errors", snap.ErrorCount,
	)
	return nil
}

// newMockHandler builds the mock server for cfg, logging through log and
// counting into metrics.
func newMockHandler(cfg *config.Config, log *slog.Logger, metrics *mockserver.MetricsObserver) (*mockserver.Server, error) {
	store, err := cfg.MockStore()
	if err != nil {
		return nil, err
	}
	return mockserver.NewServer(store,
		mockserver.WithLogger(log),
		mockserver.WithObserver(mockserver.Observers{
			mockserver.NewLoggingObserver(log),
			metrics,
		}),
		mockserver.WithMaxBodySize(cfg.Server.MaxBodySize),
	), nil
}
