package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usagetrack",
	Short: "Usage tracking for Claude Code hooks",
	Long: `usagetrack records Claude Code hook events into a local SQLite database.

Every hook invocation is turned into session, tool usage, command and event
records, and mirrored to a daily JSONL backup log under ~/.claude/usage-logs.
Run "usagetrack install" once to register the hooks.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(migrateCmd)
}
