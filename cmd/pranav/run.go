package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/presenter"
	"github.com/pranav-agent/pranav/pkg/session"
)

// RunConfig holds configuration for the run command
type RunConfig struct {
	Profile string
	NoSave  bool
}

// NewRunConfig creates a new RunConfig with default values
func NewRunConfig() *RunConfig {
	return &RunConfig{}
}

var runCmd = &cobra.Command{
	Use:   "run [input...]",
	Short: "Send a single input to the agent and print the response",
	Long: `Send a single input to the agent and print the response.

The input is taken from the arguments, or from stdin when piped:

  pranav run hello there
  echo "hello there" | pranav run`,
	Run: func(cmd *cobra.Command, args []string) {
		config := getRunConfigFromFlags(cmd)
		runRunCommand(cmd.Context(), config, args)
	},
}

func init() {
	runCmd.Flags().String("agent", "", "Agent profile to apply")
	runCmd.Flags().Bool("no-save", false, "Disable session persistence")
}

func getRunConfigFromFlags(cmd *cobra.Command) *RunConfig {
	config := NewRunConfig()

	if profileName, err := cmd.Flags().GetString("agent"); err == nil {
		config.Profile = profileName
	}
	if noSave, err := cmd.Flags().GetBool("no-save"); err == nil {
		config.NoSave = noSave
	}

	return config
}

func runRunCommand(ctx context.Context, config *RunConfig, args []string) {
	input, err := resolveRunInput(args)
	if err != nil {
		presenter.Error(err, "Failed to read input")
		os.Exit(1)
	}

	store, err := openStorage(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open storage")
		os.Exit(1)
	}
	defer store.Close()

	ag, err := buildAgent(ctx, store, config.Profile)
	if err != nil {
		presenter.Error(err, "Failed to configure agent")
		os.Exit(1)
	}

	response := ag.ProcessInput(ctx, input)
	fmt.Printf("%s: %s\n", ag.Name(), response)

	if !config.NoSave {
		svc := session.NewService(store)
		sess, err := svc.Start(ctx, ag.Name())
		if err != nil {
			logger.G(ctx).WithError(err).Warn("failed to start session")
			return
		}
		if _, err := svc.Append(ctx, sess.ID,
			session.NewMessage(session.RoleUser, input),
			session.NewMessage(session.RoleAgent, response),
		); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to persist messages")
			return
		}
		presenter.Info(fmt.Sprintf("Session saved as %s", sess.ID))
	}
}

// resolveRunInput joins the arguments, falling back to stdin when input is
// piped in. An empty result is fine: the agent has an answer for it.
func resolveRunInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read stdin")
	}
	return strings.TrimSpace(string(data)), nil
}
