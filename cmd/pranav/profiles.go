package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pranav-agent/pranav/pkg/presenter"
	"github.com/pranav-agent/pranav/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage agent profiles",
	Long: `Commands for inspecting agent profiles.

Profiles are markdown files with YAML frontmatter, discovered in
.pranav/agents/ of the current directory and in ~/.pranav/agents/.
Files in the repository directory win over same-named home files.`,
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		loader, err := profile.NewLoader()
		if err != nil {
			presenter.Error(err, "Failed to initialize profile loader")
			os.Exit(1)
		}

		profiles, err := loader.List(ctx)
		if err != nil {
			presenter.Error(err, "Failed to list profiles")
			os.Exit(1)
		}

		if len(profiles) == 0 {
			presenter.Info("No profiles found.")
			presenter.Info("Create one as .pranav/agents/<name>.md or ~/.pranav/agents/<name>.md")
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Name\tAgent\tCapabilities\tDescription")
		fmt.Fprintln(tw, "----\t-----\t------------\t-----------")
		for _, prof := range profiles {
			agentName := prof.Metadata.AgentName
			if agentName == "" {
				agentName = "-"
			}
			capabilities := "-"
			if len(prof.Metadata.Capabilities) > 0 {
				capabilities = strings.Join(prof.Metadata.Capabilities, ",")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				prof.Metadata.Name,
				agentName,
				capabilities,
				prof.Metadata.Description,
			)
		}
		if err := tw.Flush(); err != nil {
			presenter.Error(err, "Failed to render profile list")
			os.Exit(1)
		}
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile's metadata and persona",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		loader, err := profile.NewLoader()
		if err != nil {
			presenter.Error(err, "Failed to initialize profile loader")
			os.Exit(1)
		}

		prof, err := loader.Load(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to load profile")
			os.Exit(1)
		}

		presenter.Section(fmt.Sprintf("Profile %s", prof.Metadata.Name))
		presenter.Info(fmt.Sprintf("Source: %s", prof.Path))
		if prof.Metadata.Description != "" {
			presenter.Info(fmt.Sprintf("Description: %s", prof.Metadata.Description))
		}
		if prof.Metadata.AgentName != "" {
			presenter.Info(fmt.Sprintf("Agent name: %s", prof.Metadata.AgentName))
		}
		if len(prof.Metadata.Capabilities) > 0 {
			presenter.Info(fmt.Sprintf("Capabilities: %s", strings.Join(prof.Metadata.Capabilities, ", ")))
		}
		if len(prof.Metadata.Config) > 0 {
			// Rendered as YAML to match the frontmatter the profile is
			// written in.
			config, err := yaml.Marshal(prof.Metadata.Config)
			if err == nil {
				presenter.Info("Config:")
				fmt.Print(string(config))
			}
		}

		if persona := strings.TrimSpace(prof.Persona); persona != "" {
			presenter.Separator()
			fmt.Println(persona)
		}
	},
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
}
