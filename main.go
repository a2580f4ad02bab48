package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deploymenttheory/go-dex-checksum/cmd"
	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Get app configuration file from environment if specified
	configFile := os.Getenv(config.EnvPrefix + "_CONFIG")

	// 1. Initialize application configuration
	if err := config.Initialize(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		return 1
	}

	// 2. Initialize logging based on application configuration
	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}
	// Ensure logs are flushed before exit
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Run the CLI
	if err := cmd.Execute(ctx); err != nil {
		logger.LogError("Command execution failed", err, nil)
		return 1
	}
	return 0
}

// initLogging initializes the logger based on configuration settings
func initLogging() error {
	return logger.InitLogger(logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	})
}
