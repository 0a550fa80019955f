package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// HookKind is the resolved type of a single hook invocation.
type HookKind string

const (
	HookPreToolUse   HookKind = "PreToolUse"
	HookPostToolUse  HookKind = "PostToolUse"
	HookStop         HookKind = "Stop"
	HookSubagentStop HookKind = "SubagentStop"
	HookNotification HookKind = "Notification"
	HookUnknown      HookKind = "Unknown"
)

// HookKinds lists the kinds the tracker binds to, in install order.
var HookKinds = []HookKind{
	HookPreToolUse,
	HookPostToolUse,
	HookStop,
	HookSubagentStop,
	HookNotification,
}

// ParseHookKind maps a hint string to a known kind.
func ParseHookKind(s string) (HookKind, bool) {
	for _, k := range HookKinds {
		if string(k) == s {
			return k, true
		}
	}
	return HookUnknown, false
}

// IsToolUse reports whether the kind carries a tool invocation.
func (k HookKind) IsToolUse() bool {
	return k == HookPreToolUse || k == HookPostToolUse
}

// IsTermination reports whether the kind closes the owning session.
func (k HookKind) IsTermination() bool {
	return k == HookStop || k == HookSubagentStop
}

// HookPayload is the JSON object Claude Code writes to a hook's stdin.
// Fields is the complete object so unrecognized keys survive into the
// audit trail.
type HookPayload struct {
	SessionID      string
	TranscriptPath string
	Cwd            string
	HookEventName  string
	ToolName       string
	ToolInput      json.RawMessage
	ToolResponse   json.RawMessage

	Fields map[string]json.RawMessage
	Raw    json.RawMessage
}

// ParseHookPayload decodes one hook payload. The input must be a JSON
// object; anything else is ErrMalformedInput.
func ParseHookPayload(data []byte) (*HookPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedInput)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	p := &HookPayload{
		SessionID:      stringField(fields, "session_id"),
		TranscriptPath: stringField(fields, "transcript_path"),
		Cwd:            stringField(fields, "cwd"),
		HookEventName:  stringField(fields, "hook_event_name"),
		ToolName:       stringField(fields, "tool_name"),
		ToolInput:      fields["tool_input"],
		ToolResponse:   fields["tool_response"],
		Fields:         fields,
		Raw:            compact.Bytes(),
	}
	return p, nil
}

// Has reports whether the payload carries the given top-level key.
func (p *HookPayload) Has(key string) bool {
	_, ok := p.Fields[key]
	return ok
}

// InputSize is the byte length of the compact tool_input serialization.
// A missing input counts as an empty object.
func (p *HookPayload) InputSize() int64 {
	return serializedSize(p.ToolInput)
}

// OutputSize is the byte length of the compact tool_response serialization.
// A missing response counts as an empty object.
func (p *HookPayload) OutputSize() int64 {
	return serializedSize(p.ToolResponse)
}

// ShellCommand extracts the command text and description from a Bash
// tool_input. Missing or non-string fields come back empty.
func (p *HookPayload) ShellCommand() (command, description string) {
	var input map[string]json.RawMessage
	if len(p.ToolInput) == 0 || json.Unmarshal(p.ToolInput, &input) != nil {
		return "", ""
	}
	return stringField(input, "command"), stringField(input, "description")
}

// Classify resolves the kind of an invocation. The out-of-band hint wins,
// then the payload's hook_event_name, then the payload shape.
func Classify(hint string, p *HookPayload) HookKind {
	if k, ok := ParseHookKind(hint); ok {
		return k
	}
	if p == nil {
		return HookUnknown
	}
	if k, ok := ParseHookKind(p.HookEventName); ok {
		return k
	}
	if p.Has("tool_name") && p.Has("tool_input") {
		if p.Has("tool_response") {
			return HookPostToolUse
		}
		return HookPreToolUse
	}
	return HookUnknown
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func serializedSize(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return int64(len("{}"))
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return int64(len(raw))
	}
	return int64(buf.Len())
}
