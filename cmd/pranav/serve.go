package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/api"
	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/presenter"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host    string
	Port    int
	Profile string
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8080,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server exposing the agent over JSON endpoints:
input processing, task execution, session management and memory access.

The server will be available at http://localhost:8080 by default.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	// Add serve command flags
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the API server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the API server to")
	serveCmd.Flags().String("agent", "", "Agent profile to apply")
}

// getServeConfigFromFlags extracts serve configuration from command flags
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}
	if profileName, err := cmd.Flags().GetString("agent"); err == nil {
		config.Profile = profileName
	}

	return config
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	if config.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	// Check if host is a valid hostname or IP address
	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			// Not an IP, check if it's a valid hostname
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return fmt.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

// runServeCommand starts the API server and blocks until shutdown
func runServeCommand(ctx context.Context, config *ServeConfig) {
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"host": config.Host,
		"port": config.Port,
	}).Info("Starting API server")

	store, err := openStorage(ctx)
	if err != nil {
		presenter.Error(err, "failed to open storage")
		os.Exit(1)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.G(ctx).WithError(closeErr).Error("failed to close storage")
		}
	}()

	ag, err := buildAgent(ctx, store, config.Profile)
	if err != nil {
		presenter.Error(err, "failed to configure agent")
		os.Exit(1)
	}

	serverConfig := &api.Config{
		Host: config.Host,
		Port: config.Port,
	}

	server, err := api.NewServer(serverConfig, ag, store)
	if err != nil {
		presenter.Error(err, "failed to create API server")
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("API server starting on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	// Start server and wait for shutdown
	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("API server error")
		presenter.Error(err, "API server failed")
		os.Exit(1)
	}

	presenter.Info("API server stopped")
}
