package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/presenter"
)

// shutdownTracing flushes pending spans; replaced by PersistentPreRun when
// tracing initializes.
var shutdownTracing = func(context.Context) error { return nil }

func init() {
	// Environment variables; nested keys map like storage.backend ->
	// PRANAV_STORAGE_BACKEND.
	viper.SetEnvPrefix("PRANAV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.pranav")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "pranav",
	Short: "Pranav CLI for the Pranav intelligent agent",
	Long:  `Pranav is a lightweight intelligent agent with persistent memory, session tracking and an HTTP API.`,
	// Accept free-form args so they can be forwarded to run below.
	Args: cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// An explicitly requested config file must exist; the default
		// search paths from init() are best-effort.
		if cmd.Flags().Changed("config") {
			configFile, _ := cmd.Flags().GetString("config")
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				presenter.Error(err, "Failed to read config file")
				os.Exit(1)
			}
		}

		configureLogging()
		presenter.SetQuiet(viper.GetBool("quiet"))

		// Tracing failures must not take the CLI down. The OTLP exporter
		// reads its endpoint from OTEL_EXPORTER_OTLP_* variables.
		if shutdown, err := initTracing(cmd.Context()); err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing, continuing without it")
		} else {
			shutdownTracing = shutdown
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.G(cmd.Context()).WithError(err).Error("failed to shut down tracing")
		}
	},
	// Default behavior is to show help if no arguments are provided
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			// If arguments are provided but no subcommand, forward to run command
			runCmd.Run(cmd, args)
		} else {
			cmd.Help()
			os.Exit(1)
		}
	},
}

func configureLogging() {
	if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
		logger.L.WithError(err).Warn("invalid log level, falling back to info")
		_ = logger.SetLogLevel("info")
	}
	logger.SetLogFormat(viper.GetString("log_format"))
	if logFile := viper.GetString("log_file"); logFile != "" {
		logger.SetLogFile(logFile, logger.DefaultFileRotation())
	}
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.pranav/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress informational console output")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	// Add subcommands
	rootCmd.AddCommand(withTracing(chatCmd))
	rootCmd.AddCommand(withTracing(runCmd))
	rootCmd.AddCommand(withTracing(taskCmd))
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
