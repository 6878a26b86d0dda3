package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/boshu2/taskguard/internal/detect"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version, built-in ruleset version and runtime details.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "taskguard version %s\n", version)
		fmt.Fprintf(w, "  Ruleset: %s\n", detect.RulesetVersion)
		fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
		fmt.Fprintf(w, "  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
