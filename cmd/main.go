package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnknownOlympus/registrar/internal/bot"
	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/config"
	"github.com/UnknownOlympus/registrar/internal/metrics"
	"github.com/UnknownOlympus/registrar/internal/repository"
	"github.com/UnknownOlympus/registrar/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const appName = "registrar"

// Version is set at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Telegram bot for employee administration",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if configPath != "" {
				_ = os.Setenv("CONFIG_PATH", configPath)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML), overrides CONFIG_PATH")

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start the bot and the monitoring server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the bot tables and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// run starts the bot and the monitoring server and blocks until a shutdown signal arrives
// or one of them fails.
func run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer dtb.Close()

	if err = repository.Migrate(ctx, dtb); err != nil {
		return err
	}

	client, err := backend.NewClient(
		logger.With("component", "backend"),
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout,
		backend.WithMetrics(appMetrics),
		backend.WithHealthPath(cfg.Backend.HealthPath),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb)

	registrarBot, err := bot.NewBot(logger, repo, client, appMetrics, cfg.Telegram, cfg.PageSize)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.StartMonitoringServer(groupCtx, logger, reg, dtb, client, cfg.Monitoring.Port)
	})
	group.Go(func() error {
		registrarBot.Start()
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.InfoContext(groupCtx, "Shutdown signal received. Stopping application...")
		registrarBot.Stop()
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")
	return nil
}

// migrate applies the schema without starting the bot.
func migrate(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	dtb, err := repository.NewDatabase(parent, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer dtb.Close()

	if err = repository.Migrate(parent, dtb); err != nil {
		return err
	}

	logger.InfoContext(parent, "Schema is up to date")
	return nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
