package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/deploy"
	"github.com/pranav-agent/pranav/pkg/presenter"
)

// DeployConfig holds configuration for the deploy commands
type DeployConfig struct {
	Engine    string
	ConfigDir string
	LogsDir   string
}

// NewDeployConfig creates a new DeployConfig with default values
func NewDeployConfig() *DeployConfig {
	return &DeployConfig{
		Engine:    "docker",
		ConfigDir: "config",
		LogsDir:   "logs",
	}
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build and run the agent container",
	Long: `Commands for building and running the agent as a container.

A container engine (docker or podman) must be installed. The compose
subcommands (start, stop, restart) use the engine's compose plugin, or a
standalone docker-compose binary when the plugin is missing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// Surface a missing engine before showing usage, so a bare
		// 'pranav deploy' on a machine without docker fails loudly.
		if _, err := newDeployEngine(ctx, cmd); err != nil {
			presenter.Error(err, "Container engine unavailable")
			os.Exit(1)
		}
		cmd.Help()
	},
}

var deployBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the agent container image",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "build the image", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Build(ctx)
		})
		presenter.Success(fmt.Sprintf("Image %s built", deploy.ImageTag))
	},
}

var deployRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent container detached",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "run the container", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Run(ctx)
		})
		presenter.Success(fmt.Sprintf("Container %s started", deploy.ContainerName))
	},
}

var deployStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the compose stack",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "start the stack", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Up(ctx)
		})
		presenter.Success("Stack started")
	},
}

var deployStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the compose stack",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "stop the stack", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Down(ctx)
		})
		presenter.Success("Stack stopped")
	},
}

var deployRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the compose stack",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "restart the stack", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Restart(ctx)
		})
		presenter.Success("Stack restarted")
	},
}

var deployLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Follow the agent container logs",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "follow the logs", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Logs(ctx)
		})
	},
}

var deployShellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open a shell inside the agent container",
	Run: func(cmd *cobra.Command, args []string) {
		runDeployCommand(cmd, "open a shell", func(ctx context.Context, engine *deploy.Engine) error {
			return engine.Shell(ctx)
		})
	},
}

func init() {
	defaults := NewDeployConfig()
	deployCmd.PersistentFlags().String("engine", defaults.Engine, "Container engine to use (docker or podman)")
	deployCmd.PersistentFlags().String("config-dir", defaults.ConfigDir, "Host directory mounted at /app/config")
	deployCmd.PersistentFlags().String("logs-dir", defaults.LogsDir, "Host directory mounted at /app/logs")

	deployCmd.AddCommand(deployBuildCmd)
	deployCmd.AddCommand(deployRunCmd)
	deployCmd.AddCommand(deployStartCmd)
	deployCmd.AddCommand(deployStopCmd)
	deployCmd.AddCommand(deployRestartCmd)
	deployCmd.AddCommand(deployLogsCmd)
	deployCmd.AddCommand(deployShellCmd)
}

// getDeployConfigFromFlags extracts deploy configuration from command flags
func getDeployConfigFromFlags(cmd *cobra.Command) *DeployConfig {
	config := NewDeployConfig()

	if engine, err := cmd.Flags().GetString("engine"); err == nil {
		config.Engine = engine
	}
	if configDir, err := cmd.Flags().GetString("config-dir"); err == nil {
		config.ConfigDir = configDir
	}
	if logsDir, err := cmd.Flags().GetString("logs-dir"); err == nil {
		config.LogsDir = logsDir
	}

	return config
}

func newDeployEngine(ctx context.Context, cmd *cobra.Command) (*deploy.Engine, error) {
	config := getDeployConfigFromFlags(cmd)
	return deploy.NewEngine(ctx,
		deploy.WithEngineName(config.Engine),
		deploy.WithMounts(config.ConfigDir, config.LogsDir),
		deploy.WithStdio(os.Stdin, os.Stdout, os.Stderr),
	)
}

// runDeployCommand resolves the engine and hands it to the action. Errors
// from the underlying tool carry its exit code, which becomes ours.
func runDeployCommand(cmd *cobra.Command, description string, action func(context.Context, *deploy.Engine) error) {
	ctx := cmd.Context()

	engine, err := newDeployEngine(ctx, cmd)
	if err != nil {
		presenter.Error(err, "Container engine unavailable")
		os.Exit(1)
	}

	if err := action(ctx, engine); err != nil {
		if errors.Is(err, deploy.ErrEngineNotFound) {
			presenter.Error(err, "Container engine unavailable")
			os.Exit(1)
		}
		presenter.Error(err, fmt.Sprintf("Failed to %s", description))
		os.Exit(deploy.ExitCode(err))
	}
}
