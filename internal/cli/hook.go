package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/usagetrack/internal/tracker"
)

// maxHookInput bounds how much of stdin a single hook reads.
var maxHookInput int64 = 16 << 20

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Record one Claude Code hook event",
	Long: `Reads a hook event JSON object from stdin and records it.

The event type comes from the CLAUDE_HOOK_TYPE environment variable set in
the hook binding, falling back to the payload's hook_event_name and shape.
The command always exits 0 and never writes to stdout, so a tracking failure
cannot block Claude Code. Diagnostics go to stderr.

  {
    "hooks": {
      "PreToolUse": [{"matcher": "", "hooks": [{"type": "command", "command": "CLAUDE_HOOK_TYPE=PreToolUse usagetrack hook"}]}]
    }
  }`,
	Args: cobra.ArbitraryArgs,
	RunE: runHook,
}

func runHook(cmd *cobra.Command, args []string) error {
	if err := processHook(context.Background(), os.Stdin, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "usagetrack: %v\n", err)
	}
	return nil
}

// processHook ingests one event. It returns only the errors that happen
// before a logger exists; ingestion failures are logged and swallowed.
func processHook(ctx context.Context, stdin io.Reader, stderr io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()

	input, err := io.ReadAll(io.LimitReader(stdin, maxHookInput+1))
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	app, err := NewAppContext(ctx, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger.Warn("failed to close database", "error", cerr)
		}
	}()

	if int64(len(input)) > maxHookInput {
		app.Logger.Error("hook input too large, event dropped", "limit_bytes", maxHookInput)
		return nil
	}

	projectPath, wdErr := os.Getwd()
	if wdErr != nil {
		projectPath = ""
	}

	ingestor := tracker.NewIngestor(tracker.Options{
		Store:       app.DurableStore(),
		Backup:      app.Backup,
		Metrics:     app.Metrics,
		Logger:      app.Logger,
		Hint:        os.Getenv(config.HookTypeEnv),
		ProjectPath: projectPath,
	})

	res, ingestErr := ingestor.Ingest(ctx, input)
	switch {
	case ingestErr == nil:
		app.Logger.Debug("hook recorded", "kind", res.Kind, "session_id", res.SessionID)
	case errors.Is(ingestErr, domain.ErrMissingSessionID):
		app.Logger.Warn("hook recorded without session", "kind", res.Kind, "error", ingestErr)
	case errors.Is(ingestErr, domain.ErrMalformedInput):
		app.Logger.Warn("hook input ignored", "bytes", len(input), "error", ingestErr)
	default:
		app.Logger.Error("failed to record hook", "kind", res.Kind, "session_id", res.SessionID, "error", ingestErr)
	}
	return nil
}
