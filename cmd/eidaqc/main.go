package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/config"
	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/guard"
	"github.com/eidaops/eidaqc/internal/inventory"
	"github.com/eidaops/eidaqc/internal/metrics"
	"github.com/eidaops/eidaqc/internal/probe"
	"github.com/eidaops/eidaqc/internal/redis"
	"github.com/eidaops/eidaqc/internal/report"
	"github.com/eidaops/eidaqc/internal/resultlog"
	"github.com/eidaops/eidaqc/internal/server"
	"github.com/eidaops/eidaqc/internal/version"
)

// infrastructure holds core infrastructure components. redisClient is nil
// when the mirror is disabled.
type infrastructure struct {
	redisClient redis.Client
}

// services holds the probe services and their read-side providers.
type services struct {
	catalog      *inventory.Service
	availability *probe.Service
	consistency  *consistency.Service
	probes       probe.Provider
	summaries    consistency.SummaryProvider
}

func main() {
	// Parse command-line flags
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())

		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Setup logger
	logger := setupLogger()

	var err error

	switch args[0] {
	case "avail":
		err = runAvail(logger, args[1:])
	case "inv":
		err = runInv(logger, args[1:])
	case "daemon":
		err = runDaemon(logger, args[1:])
	case "report":
		err = runReport(logger, args[1:])
	case "template":
		err = runTemplate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.WithError(err).Fatal("Command failed")
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: eidaqc [-version] <command> [flags]

Commands:
  avail     run one availability probe cycle and record the outcome
  inv       run one catalog consistency cycle against all member servers
  daemon    run both probes on a schedule, with the ops HTTP listener
  report    render the Markdown summary report from recorded results
  template  print a commented default configuration file

Run 'eidaqc <command> -h' for the flags of a command.
`)
}

// setupLogger creates and configures the application logger.
func setupLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	logger.WithFields(logrus.Fields{
		"version":    version.Short(),
		"git_commit": version.GitCommit,
		"build_date": version.BuildDate,
	}).Info("Starting...")

	return logger
}

// loadAndValidateConfig loads the configuration file and validates it.
func loadAndValidateConfig(logger *logrus.Logger, configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Validate configuration (fills defaults, including the log level)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Set log level from config
	level, parseErr := logrus.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logger.WithError(parseErr).Warn("Invalid log level, using info")

		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"base_dir":  cfg.Paths.BaseDir,
		"log_level": cfg.LogLevel,
	}).Info("Configuration loaded")

	return cfg, nil
}

// setupInfrastructure connects the optional Redis mirror.
func setupInfrastructure(ctx context.Context, logger *logrus.Logger, cfg *config.Config) (*infrastructure, error) {
	infra := &infrastructure{}

	if !cfg.Redis.Enabled {
		logger.Debug("Redis mirror disabled")

		return infra, nil
	}

	redisClient := redis.NewClient(logger, cfg.RedisClientConfig())
	if err := redisClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start Redis client: %w", err)
	}

	infra.redisClient = redisClient

	return infra, nil
}

func (i *infrastructure) stop(logger *logrus.Logger) {
	if i.redisClient == nil {
		return
	}

	if err := i.redisClient.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping Redis client")
	}
}

// setupServices wires the catalog cache and both probes. Each probe gets
// its own FDSN client so its configured request timeout stays the
// transport backstop for that probe alone.
func setupServices(logger *logrus.Logger, cfg *config.Config, infra *infrastructure) (*services, error) {
	m := metrics.New(prometheus.DefaultRegisterer)

	svc := &services{}

	catalog, err := inventory.New(logger, cfg.InventoryConfig(),
		fdsn.NewHTTPClient(logger, cfg.Cache.RequestTimeout), m)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory service: %w", err)
	}

	svc.catalog = catalog

	var mirror *probe.Mirror
	if infra.redisClient != nil {
		mirror = probe.NewMirror(logger, infra.redisClient, cfg.Redis.LatestTTL)
		svc.probes = mirror
		svc.summaries = consistency.NewRedisSummaries(logger, infra.redisClient)
	}

	svc.availability, err = probe.New(logger, cfg.ProbeConfig(), catalog,
		fdsn.NewHTTPClient(logger, cfg.Availability.RequestTimeout),
		resultlog.New(logger, cfg.Paths.ResultDir), mirror, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability probe: %w", err)
	}

	svc.consistency, err = consistency.New(logger, cfg.ConsistencyConfig(),
		fdsn.NewHTTPClient(logger, cfg.Consistency.RequestTimeout), infra.redisClient, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create consistency probe: %w", err)
	}

	return svc, nil
}

func (s *services) close(logger *logrus.Logger) {
	if err := s.consistency.Close(); err != nil {
		logger.WithError(err).Error("Error closing consistency result log")
	}
}

// runAvail executes a single availability probe cycle.
func runAvail(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("avail", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	ignoreMissing := fs.Bool("ignore-missing", false,
		"Accept a fresh inventory even when reference networks are missing")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfig(logger, *configPath)
	if err != nil {
		return err
	}

	if *ignoreMissing {
		cfg.Networks.IgnoreMissingReference = true
	}

	g := guard.New(logger, cfg.Paths.MarkerPath, cfg.Guard.MaxAge)

	acquired, err := g.Acquire()
	if err != nil {
		return fmt.Errorf("acquire run marker: %w", err)
	}

	if !acquired {
		logger.Info("Another probe instance is live, skipping this cycle")

		return nil
	}
	defer g.Release()

	ctx := context.Background()

	infra, err := setupInfrastructure(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer infra.stop(logger)

	svc, err := setupServices(logger, cfg, infra)
	if err != nil {
		return err
	}
	defer svc.close(logger)

	code, err := svc.availability.RunOnce(ctx, false)
	if err != nil {
		return fmt.Errorf("availability probe: %w", err)
	}

	logger.WithField("status", string(code)).Info("Availability probe cycle finished")

	return nil
}

// runInv executes a single catalog consistency cycle.
func runInv(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("inv", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	level := fs.String("level", "",
		"Request level: network, station or channel (overrides the config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfig(logger, *configPath)
	if err != nil {
		return err
	}

	if *level != "" {
		if _, err := fdsn.ParseLevel(*level); err != nil {
			return err
		}

		cfg.Consistency.Level = *level
	}

	ctx := context.Background()

	infra, err := setupInfrastructure(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer infra.stop(logger)

	svc, err := setupServices(logger, cfg, infra)
	if err != nil {
		return err
	}
	defer svc.close(logger)

	summary, err := svc.consistency.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("consistency probe: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"routed_networks": len(summary.RoutedNetworks),
		"failed_servers":  len(summary.FailedServers),
		"missing":         len(summary.MissingReference),
	}).Info("Consistency probe cycle finished")

	return nil
}

// runDaemon runs both probes on their configured intervals and serves the
// ops HTTP endpoints until SIGINT or SIGTERM.
func runDaemon(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfig(logger, *configPath)
	if err != nil {
		return err
	}

	g := guard.New(logger, cfg.Paths.MarkerPath, cfg.Guard.MaxAge)

	acquired, err := g.Acquire()
	if err != nil {
		return fmt.Errorf("acquire run marker: %w", err)
	}

	if !acquired {
		return errors.New("another probe instance is live")
	}
	defer g.Release()

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, err := setupInfrastructure(ctx, logger, cfg)
	if err != nil {
		return err
	}

	svc, err := setupServices(logger, cfg, infra)
	if err != nil {
		infra.stop(logger)

		return err
	}

	// Start HTTP server in goroutine
	srv := server.New(logger, &cfg.Server, svc.probes, svc.summaries)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	// Probe schedules
	go probeLoop(ctx, cfg.Daemon.AvailabilityInterval, func(ctx context.Context) {
		if _, err := svc.availability.RunOnce(ctx, false); err != nil {
			logger.WithError(err).Error("Availability probe cycle failed")
		}
	})

	go probeLoop(ctx, cfg.Daemon.ConsistencyInterval, func(ctx context.Context) {
		if _, err := svc.consistency.RunOnce(ctx); err != nil {
			logger.WithError(err).Error("Consistency probe cycle failed")
		}
	})

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	// Cancel application context to stop the probe loops
	cancel()

	shutdownGracefully(logger, cfg, srv, svc, infra)

	return nil
}

// probeLoop runs fn immediately and then on every tick until the context
// is cancelled.
func probeLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// shutdownGracefully stops everything the daemon started.
// Shutdown order:
// 1. HTTP server (stop accepting requests).
// 2. Consistency result log (flush and close the rotating writer).
// 3. Redis client (close connections).
func shutdownGracefully(
	logger *logrus.Logger,
	cfg *config.Config,
	srv *server.Server,
	svc *services,
	infra *infrastructure,
) {
	logger.Info("Initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}

	svc.close(logger)
	infra.stop(logger)

	logger.Info("Daemon stopped gracefully")
}

// runReport renders the Markdown summary report from the recorded results.
func runReport(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfig(logger, *configPath)
	if err != nil {
		return err
	}

	// The report only reads the cached catalog, so no probes and no Redis.
	catalog, err := inventory.New(logger, cfg.InventoryConfig(),
		fdsn.NewHTTPClient(logger, cfg.Cache.RequestTimeout),
		metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		return fmt.Errorf("failed to create inventory service: %w", err)
	}

	gen, err := report.New(logger, cfg.ReportConfig(), catalog)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	if err := gen.Run(context.Background()); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	return nil
}

// runTemplate writes the commented default configuration.
func runTemplate(args []string) error {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	outPath := fs.String("o", "", "Write the template to this file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *outPath == "" {
		fmt.Print(config.Template)

		return nil
	}

	if err := os.WriteFile(*outPath, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	return nil
}
