package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/agent"
	"github.com/pranav-agent/pranav/pkg/presenter"
)

// TaskConfig holds configuration for the task command
type TaskConfig struct {
	Profile string
	Params  []string
	JSON    bool
}

// NewTaskConfig creates a new TaskConfig with default values
func NewTaskConfig() *TaskConfig {
	return &TaskConfig{}
}

var taskCmd = &cobra.Command{
	Use:   "task <name>",
	Short: "Ask the agent to execute a named task",
	Long: `Ask the agent to execute a named task with optional parameters.

Parameters are given as repeated --param key=value flags. Values are
parsed as JSON where possible, otherwise kept as strings:

  pranav task summarize --param topic=weather --param limit=5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getTaskConfigFromFlags(cmd)
		runTaskCommand(cmd.Context(), config, args[0])
	},
}

func init() {
	taskCmd.Flags().String("agent", "", "Agent profile to apply")
	taskCmd.Flags().StringArray("param", nil, "Task parameter as key=value (repeatable)")
	taskCmd.Flags().Bool("json", false, "Print the raw task result as JSON")
}

func getTaskConfigFromFlags(cmd *cobra.Command) *TaskConfig {
	config := NewTaskConfig()

	if profileName, err := cmd.Flags().GetString("agent"); err == nil {
		config.Profile = profileName
	}
	if params, err := cmd.Flags().GetStringArray("param"); err == nil {
		config.Params = params
	}
	if jsonOut, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = jsonOut
	}

	return config
}

func runTaskCommand(ctx context.Context, config *TaskConfig, taskName string) {
	parameters, err := parseTaskParams(config.Params)
	if err != nil {
		presenter.Error(err, "Invalid task parameters")
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

	result, err := ag.ExecuteTask(ctx, taskName, parameters)
	if err != nil {
		presenter.Error(err, "Task execution failed")
		os.Exit(1)
	}

	if config.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to encode task result")
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	// A not_implemented result is a valid outcome, not a failure.
	switch result.Status {
	case agent.TaskStatusNotImplemented:
		presenter.Warning(result.Message)
	default:
		presenter.Success(result.Message)
	}
}

// parseTaskParams turns repeated key=value flags into task parameters.
// Values that parse as JSON keep their parsed type, everything else
// stays a plain string.
func parseTaskParams(params []string) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}

	parameters := make(map[string]any, len(params))
	for _, param := range params {
		key, value, found := strings.Cut(param, "=")
		if !found || key == "" {
			return nil, errors.Errorf("invalid parameter %q, expected key=value", param)
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parameters[key] = value
			continue
		}
		parameters[key] = parsed
	}

	return parameters, nil
}
