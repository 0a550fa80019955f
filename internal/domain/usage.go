package domain

import (
	"encoding/json"
	"time"
)

// ToolUsage is one PreToolUse or PostToolUse observation.
type ToolUsage struct {
	ID          string
	SessionID   string
	Timestamp   time.Time
	ToolName    string
	Category    ToolCategory
	InputSize   int64
	OutputSize  int64
	ProjectPath string
}

// Command is a shell command observed through the Bash tool.
type Command struct {
	ID          string
	SessionID   string
	Timestamp   time.Time
	Command     string
	Description string
	ProjectPath string
}

// Event is the audit row written for every hook invocation. SessionID is
// empty when the payload carried none.
type Event struct {
	ID          string
	SessionID   string
	Timestamp   time.Time
	Kind        HookKind
	Data        json.RawMessage
	ProjectPath string
}

// BackupRecord is one line of the daily backup log.
type BackupRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	HookType  HookKind        `json:"hook_type"`
	Project   string          `json:"project"`
	Data      json.RawMessage `json:"data"`
}
