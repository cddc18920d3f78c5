package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/presenter"
	"github.com/pranav-agent/pranav/pkg/session"
)

// ChatConfig holds configuration for the chat command
type ChatConfig struct {
	Profile string
	NoSave  bool
}

// NewChatConfig creates a new ChatConfig with default values
func NewChatConfig() *ChatConfig {
	return &ChatConfig{}
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the agent",
	Long: `Start an interactive chat session with the agent.

Type 'exit' or 'quit' to end the session. Unless --no-save is given,
the transcript is persisted and can be reviewed with 'pranav sessions'.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := getChatConfigFromFlags(cmd)
		runChatCommand(cmd.Context(), config)
	},
}

func init() {
	chatCmd.Flags().String("agent", "", "Agent profile to apply for this session")
	chatCmd.Flags().Bool("no-save", false, "Disable session persistence")
}

func getChatConfigFromFlags(cmd *cobra.Command) *ChatConfig {
	config := NewChatConfig()

	if profileName, err := cmd.Flags().GetString("agent"); err == nil {
		config.Profile = profileName
	}
	if noSave, err := cmd.Flags().GetBool("no-save"); err == nil {
		config.NoSave = noSave
	}

	return config
}

func runChatCommand(ctx context.Context, config *ChatConfig) {
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

	svc := session.NewService(store)
	var sess *session.Session
	if !config.NoSave {
		sess, err = svc.Start(ctx, ag.Name())
		if err != nil {
			presenter.Error(err, "Failed to start session")
			os.Exit(1)
		}
	}

	presenter.Section(fmt.Sprintf("Welcome to the %s agent", ag.Name()))
	presenter.Info("Type 'exit' or 'quit' to end the session")
	if config.NoSave {
		presenter.Info("Session persistence is disabled")
	}
	presenter.Separator()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("You: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF ends the conversation the same way an explicit exit does.
			fmt.Println()
			break
		}
		input := strings.TrimSpace(line)

		if isExitCommand(input) {
			break
		}

		// Empty input is still handed to the agent; it has its own answer
		// for that case.
		response := ag.ProcessInput(ctx, input)
		fmt.Printf("%s: %s\n\n", ag.Name(), response)

		if sess != nil {
			if _, err := svc.Append(ctx, sess.ID,
				session.NewMessage(session.RoleUser, input),
				session.NewMessage(session.RoleAgent, response),
			); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to persist chat messages")
			}
		}
	}

	fmt.Printf("%s: Goodbye! Have a great day.\n", ag.Name())

	if sess != nil {
		presenter.Separator()
		presenter.Info(fmt.Sprintf("Session saved as %s", sess.ID))
		presenter.Info(fmt.Sprintf("Review it with: pranav sessions show %s", sess.ID))
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}
