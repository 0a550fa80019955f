package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/hookconfig"
	"github.com/emiliopalmerini/usagetrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/usagetrack/internal/util"
)

const localSettingsFile = "settings.local.json"

var (
	installSettings string
	installProject  bool
	installDryRun   bool
	installBinary   string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the tracking hooks in Claude Code settings",
	Long: `Registers one tracking hook per event (PreToolUse, PostToolUse, Stop,
SubagentStop, Notification) in the local settings override file.

Running install again is safe: bindings that are already current are left
alone, bindings from older installs are replaced, and hooks you added
yourself are kept.

Examples:
  usagetrack install                 # ~/.claude/settings.local.json
  usagetrack install --project       # ./.claude/settings.local.json
  usagetrack install --dry-run       # print the merged settings`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installSettings, "settings", "", "Settings file to update (default ~/.claude/settings.local.json)")
	installCmd.Flags().BoolVar(&installProject, "project", false, "Update ./.claude/settings.local.json in the current directory")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the merged settings instead of writing them")
	installCmd.Flags().StringVar(&installBinary, "binary", "", "Tracker executable used in the hook commands (default: this binary)")
	installCmd.MarkFlagsMutuallyExclusive("settings", "project")
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path, err := installTarget()
	if err != nil {
		return err
	}

	binary, err := trackerBinary()
	if err != nil {
		return err
	}

	doc, err := hookconfig.Load(path)
	if err != nil {
		return err
	}

	changed, err := mergeBindings(doc, binary, out)
	if err != nil {
		return err
	}

	if installDryRun {
		data, err := doc.Bytes()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	if !changed {
		fmt.Fprintf(out, "Hooks already up to date in %s\n", path)
		return nil
	}

	if err := hookconfig.Save(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "Settings saved to %s\n", path)
	fmt.Fprintln(out, "Restart Claude Code for the hooks to take effect.")
	return nil
}

// mergeBindings merges every tracked event and reports whether anything
// changed.
func mergeBindings(doc *hookconfig.Document, binary string, out io.Writer) (bool, error) {
	m := hookconfig.NewMerger()
	m.TypeEnv = config.HookTypeEnv

	changed := false
	for _, kind := range domain.HookKinds {
		command := hookconfig.BindingCommand(m.TypeEnv, kind, binary)
		res, err := m.Merge(doc, string(kind), command)
		if err != nil {
			return false, fmt.Errorf("failed to merge %s: %w", kind, err)
		}

		switch {
		case res.AlreadyPresent && res.Removed == 0:
			fmt.Fprintf(out, "  %-13s already installed\n", kind)
		case res.Removed > 0:
			fmt.Fprintf(out, "  %-13s installed, replaced %d stale binding(s)\n", kind, res.Removed)
		default:
			fmt.Fprintf(out, "  %-13s installed\n", kind)
		}
		changed = changed || res.Changed()
	}
	return changed, nil
}

func installTarget() (string, error) {
	switch {
	case installSettings != "":
		return util.ExpandHome(installSettings)
	case installProject:
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return filepath.Join(wd, ".claude", localSettingsFile), nil
	default:
		claudeDir, err := util.ClaudeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(claudeDir, localSettingsFile), nil
	}
}

func trackerBinary() (string, error) {
	if installBinary != "" {
		return installBinary, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate tracker executable, pass --binary: %w", err)
	}
	return exe, nil
}
