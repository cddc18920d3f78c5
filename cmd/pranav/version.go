package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of Pranav.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()

		if short, err := cmd.Flags().GetBool("short"); err == nil && short {
			fmt.Println(info.Version)
			return
		}

		if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil && jsonOutput {
			out, err := info.JSON()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting version info: %s\n", err)
				os.Exit(1)
			}
			fmt.Println(out)
			return
		}

		fmt.Println(info.String())
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version number")
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
}
