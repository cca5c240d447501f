package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/config"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/provider"
	"github.com/marmos91/storfiler/pkg/server"
)

const usage = `Storfiler - declarative file-serving gateway

Usage:
  storfiler [serve] [flags]   Start the gateway (default)
  storfiler init [flags]      Write a sample configuration file

Run 'storfiler <command> -h' for command flags.
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "init":
		err = runInit(args)
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "Where to write the file (default: $XDG_CONFIG_HOME/storfiler/config.yaml)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *configPath
	if path == "" {
		p, err := config.InitConfig(*force)
		if err != nil {
			return err
		}
		path = p
	} else if err := config.InitConfigToPath(path, *force); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/storfiler/config.yaml)")
	logLevel := fs.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Storfiler - declarative file-serving gateway")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	cat, err := config.BuildCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to build resource catalog: %w", err)
	}
	for _, r := range cat.Resources() {
		logger.Info("Resource %q: %d method(s)", r.Name, len(r.Methods))
	}

	m := config.InitializeMetrics(cfg)

	factory := provider.NewFactory()
	dispatcher := gateway.NewDispatcher(factory, m.Gateway, gateway.WithMaxFanout(cfg.Server.MaxFanout))

	adapters, err := config.CreateAdapters(cfg, cat, dispatcher, m.HTTP)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.ShutdownTimeout)
	if m.Server != nil {
		if err := srv.SetMetricsServer(m.Server); err != nil {
			return err
		}
	}
	for _, a := range adapters.All {
		if err := srv.AddAdapter(a); err != nil {
			return fmt.Errorf("failed to register %s adapter: %w", a.Protocol(), err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Server.Watch && adapters.REST != nil {
		err := config.Watch(ctx, *configPath, func(_ *config.Config, next *gateway.Catalog) {
			// Only the catalog is reloadable; listeners and providers keep
			// their startup configuration.
			_ = adapters.REST.Reload(next)
			stats := factory.Stats()
			logger.Debug("Provider pools: %d blob, %d s3, %d memory",
				stats.BlobClients, stats.S3Clients, stats.MemoryBuckets)
		})
		if err != nil {
			logger.Warn("Config watching disabled: %v", err)
		}
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
