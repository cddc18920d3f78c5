package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/presenter"
	"github.com/pranav-agent/pranav/pkg/session"
)

// SessionListConfig holds configuration for the sessions list command
type SessionListConfig struct {
	JSONOutput bool
}

// NewSessionListConfig creates a new SessionListConfig with default values
func NewSessionListConfig() *SessionListConfig {
	return &SessionListConfig{
		JSONOutput: false,
	}
}

// SessionDeleteConfig holds configuration for the sessions delete command
type SessionDeleteConfig struct {
	NoConfirm bool
}

// NewSessionDeleteConfig creates a new SessionDeleteConfig with default values
func NewSessionDeleteConfig() *SessionDeleteConfig {
	return &SessionDeleteConfig{
		NoConfirm: false,
	}
}

// SessionExportConfig holds configuration for the sessions export command
type SessionExportConfig struct {
	Output string
}

// NewSessionExportConfig creates a new SessionExportConfig with default values
func NewSessionExportConfig() *SessionExportConfig {
	return &SessionExportConfig{
		Output: "",
	}
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved chat sessions",
	Long:  `Commands for listing, inspecting, deleting and exporting saved chat sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSessionListConfigFromFlags(cmd)
		listSessionsCmd(ctx, config)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [sessionID]",
	Short: "Show a session transcript",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showSessionCmd(cmd.Context(), args[0])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [sessionID]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSessionDeleteConfigFromFlags(cmd)
		deleteSessionCmd(ctx, args[0], config)
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export [sessionID]",
	Short: "Export a session as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSessionExportConfigFromFlags(cmd)
		exportSessionCmd(ctx, args[0], config)
	},
}

func init() {
	sessionsListCmd.Flags().Bool("json", false, "Output in JSON format")
	sessionsDeleteCmd.Flags().Bool("no-confirm", false, "Skip the confirmation prompt")
	sessionsExportCmd.Flags().String("output", "", "Write the export to a file instead of stdout")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
}

// getSessionListConfigFromFlags extracts list configuration from command flags
func getSessionListConfigFromFlags(cmd *cobra.Command) *SessionListConfig {
	config := NewSessionListConfig()

	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

// getSessionDeleteConfigFromFlags extracts delete configuration from command flags
func getSessionDeleteConfigFromFlags(cmd *cobra.Command) *SessionDeleteConfig {
	config := NewSessionDeleteConfig()

	if noConfirm, err := cmd.Flags().GetBool("no-confirm"); err == nil {
		config.NoConfirm = noConfirm
	}

	return config
}

// getSessionExportConfigFromFlags extracts export configuration from command flags
func getSessionExportConfigFromFlags(cmd *cobra.Command) *SessionExportConfig {
	config := NewSessionExportConfig()

	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}

	return config
}

// OutputFormat defines the format of the output
type OutputFormat int

const (
	TableFormat OutputFormat = iota
	JSONFormat
)

// SessionListOutput represents the output for sessions list
type SessionListOutput struct {
	Sessions []SessionSummaryOutput
	Format   OutputFormat
}

// SessionSummaryOutput represents a single session summary for output
type SessionSummaryOutput struct {
	ID           string    `json:"id"`
	AgentName    string    `json:"agent_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Summary      string    `json:"summary"`
}

// NewSessionListOutput creates a new SessionListOutput
func NewSessionListOutput(sessions []*session.Session, format OutputFormat) *SessionListOutput {
	output := &SessionListOutput{
		Sessions: make([]SessionSummaryOutput, 0, len(sessions)),
		Format:   format,
	}

	for _, sess := range sessions {
		output.Sessions = append(output.Sessions, SessionSummaryOutput{
			ID:           sess.ID,
			AgentName:    sess.AgentName,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: len(sess.Messages),
			Summary:      sess.Summary(),
		})
	}

	return output
}

// Render formats and renders the session list to the specified writer
func (o *SessionListOutput) Render(w io.Writer) error {
	if o.Format == JSONFormat {
		return o.renderJSON(w)
	}
	return o.renderTable(w)
}

func (o *SessionListOutput) renderJSON(w io.Writer) error {
	type jsonOutput struct {
		Sessions []SessionSummaryOutput `json:"sessions"`
	}

	jsonData, err := json.MarshalIndent(jsonOutput{Sessions: o.Sessions}, "", "  ")
	if err != nil {
		return fmt.Errorf("error generating JSON output: %v", err)
	}

	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func (o *SessionListOutput) renderTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tAgent\tUpdated\tMessages\tSummary")
	fmt.Fprintln(tw, "----\t-----\t-------\t--------\t-------")

	for _, sess := range o.Sessions {
		summary := sess.Summary
		if len(summary) > 60 {
			summary = strings.TrimSpace(summary[:57]) + "..."
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			sess.ID,
			sess.AgentName,
			sess.UpdatedAt.Format(time.RFC3339),
			sess.MessageCount,
			summary,
		)
	}

	return tw.Flush()
}

// listSessionsCmd displays the saved sessions, most recent first
func listSessionsCmd(ctx context.Context, config *SessionListConfig) {
	store := mustOpenStorage(ctx)
	defer store.Close()

	svc := session.NewService(store)
	sessions, err := svc.List(ctx)
	if err != nil {
		presenter.Error(err, "Failed to list sessions")
		os.Exit(1)
	}

	if len(sessions) == 0 {
		presenter.Info("No saved sessions found.")
		return
	}

	format := TableFormat
	if config.JSONOutput {
		format = JSONFormat
	}

	output := NewSessionListOutput(sessions, format)
	if err := output.Render(os.Stdout); err != nil {
		presenter.Error(err, "Failed to render session list")
		os.Exit(1)
	}
}

// showSessionCmd displays a single session transcript
func showSessionCmd(ctx context.Context, id string) {
	store := mustOpenStorage(ctx)
	defer store.Close()

	svc := session.NewService(store)
	sess, err := svc.Get(ctx, id)
	if err != nil {
		presenter.Error(err, "Failed to load session")
		os.Exit(1)
	}

	presenter.Section(fmt.Sprintf("Session %s", sess.ID))
	presenter.Info(fmt.Sprintf("Agent: %s", sess.AgentName))
	presenter.Info(fmt.Sprintf("Created: %s", sess.CreatedAt.Format(time.RFC3339)))
	presenter.Info(fmt.Sprintf("Updated: %s", sess.UpdatedAt.Format(time.RFC3339)))
	presenter.Separator()

	if len(sess.Messages) == 0 {
		presenter.Info("This session has no messages.")
		return
	}

	for _, msg := range sess.Messages {
		speaker := "You"
		if msg.Role == session.RoleAgent {
			speaker = sess.AgentName
		}
		fmt.Printf("[%s] %s: %s\n", msg.Time.Format(time.RFC3339), speaker, msg.Content)
	}
}

// deleteSessionCmd deletes a specific session
func deleteSessionCmd(ctx context.Context, id string, config *SessionDeleteConfig) {
	store := mustOpenStorage(ctx)
	defer store.Close()

	svc := session.NewService(store)

	// If no-confirm flag is not set, prompt for confirmation
	if !config.NoConfirm {
		response := presenter.Prompt(fmt.Sprintf("Are you sure you want to delete session %s?", id), "y", "N")

		if response != "y" && response != "Y" {
			presenter.Info("Deletion cancelled.")
			return
		}
	}

	if err := svc.Delete(ctx, id); err != nil {
		presenter.Error(err, "Failed to delete session")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Session %s deleted successfully", id))
}

// exportSessionCmd exports a session as pretty-printed JSON
func exportSessionCmd(ctx context.Context, id string, config *SessionExportConfig) {
	store := mustOpenStorage(ctx)
	defer store.Close()

	svc := session.NewService(store)
	data, err := svc.Export(ctx, id)
	if err != nil {
		presenter.Error(err, "Failed to export session")
		os.Exit(1)
	}

	if config.Output == "" {
		fmt.Println(string(data))
		return
	}

	if err := os.WriteFile(config.Output, data, 0o644); err != nil {
		presenter.Error(err, "Failed to write export file")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Session %s exported to %s", id, config.Output))
}
