package hookconfig_test

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/hookconfig"
)

const binary = "/usr/local/bin/usagetrack"

var (
	cmdA = hookconfig.BindingCommand(hookconfig.DefaultTypeEnv, domain.HookStop, "/opt/old/usagetrack")
	cmdB = hookconfig.BindingCommand(hookconfig.DefaultTypeEnv, domain.HookStop, binary)
)

func mustParse(t *testing.T, s string) *hookconfig.Document {
	t.Helper()
	doc, err := hookconfig.Parse([]byte(s))
	require.NoError(t, err)
	return doc
}

func mustBytes(t *testing.T, doc *hookconfig.Document) []byte {
	t.Helper()
	out, err := doc.Bytes()
	require.NoError(t, err)
	return out
}

func commands(doc *hookconfig.Document, event string) []string {
	var out []string
	for _, e := range doc.Entries(event) {
		if e.Group == nil {
			continue
		}
		for _, b := range e.Group.Hooks {
			out = append(out, b.Command)
		}
	}
	return out
}

func TestBindingCommand(t *testing.T) {
	assert.Equal(t, "CLAUDE_HOOK_TYPE=Stop /usr/local/bin/usagetrack hook", cmdB)
	assert.Equal(t,
		"CLAUDE_HOOK_TYPE=Notification '/Users/me/My Tools/usagetrack' hook",
		hookconfig.BindingCommand(hookconfig.DefaultTypeEnv, domain.HookNotification, "/Users/me/My Tools/usagetrack"))
}

func TestMerge_EmptyDocument(t *testing.T) {
	doc := mustParse(t, "")
	m := hookconfig.NewMerger()

	res, err := m.Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.False(t, res.AlreadyPresent)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, []string{cmdB}, commands(doc, "Stop"))

	entries := doc.Entries("Stop")
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Group)
	assert.Equal(t, "", entries[0].Group.Matcher)
	assert.Equal(t, "command", entries[0].Group.Hooks[0].Type)
}

func TestMerge_FixedPoint(t *testing.T) {
	doc := mustParse(t, `{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"say done"}]}]}}`)
	m := hookconfig.NewMerger()

	_, err := m.Merge(doc, "Stop", cmdA)
	require.NoError(t, err)
	once := mustBytes(t, doc)

	res, err := m.Merge(doc, "Stop", cmdA)
	require.NoError(t, err)
	assert.True(t, res.AlreadyPresent)
	assert.False(t, res.Changed())
	assert.Equal(t, string(once), string(mustBytes(t, doc)))

	reparsed := mustParse(t, string(once))
	res, err = m.Merge(reparsed, "Stop", cmdA)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, string(once), string(mustBytes(t, reparsed)))
}

func TestMerge_ReplacesStaleGroupKeepsManualGroup(t *testing.T) {
	doc := mustParse(t, `{"hooks":{"Stop":[
		{"matcher":"","hooks":[{"type":"command","command":"`+cmdA+`"}]},
		{"matcher":"","hooks":[{"type":"command","command":"afplay /System/Library/Sounds/Glass.aiff"}]}
	]}}`)
	m := hookconfig.NewMerger()

	res, err := m.Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.True(t, res.Added)
	assert.Equal(t, []string{"afplay /System/Library/Sounds/Glass.aiff", cmdB}, commands(doc, "Stop"))
}

func TestMerge_ReplacesLegacyPythonBinding(t *testing.T) {
	legacy := "CLAUDE_HOOK_TYPE=PreToolUse python3 /home/u/.claude/scripts/usage-tracker.py"
	doc := mustParse(t, `{"hooks":{"PreToolUse":[{"matcher":"","hooks":[{"type":"command","command":"`+legacy+`"}]}]}}`)
	cmd := hookconfig.BindingCommand(hookconfig.DefaultTypeEnv, domain.HookPreToolUse, binary)

	res, err := hookconfig.NewMerger().Merge(doc, "PreToolUse", cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{cmd}, commands(doc, "PreToolUse"))
}

func TestMerge_StaleRequiresEventMarker(t *testing.T) {
	doc := mustParse(t, `{"hooks":{"Stop":[
		{"matcher":"","hooks":[{"type":"command","command":"CLAUDE_HOOK_TYPE=SubagentStop /opt/old/usagetrack hook"}]},
		{"matcher":"","hooks":[{"type":"command","command":"/opt/old/usagetrack report"}]},
		{"matcher":"","hooks":[{"type":"command","command":"X_CLAUDE_HOOK_TYPE=Stop usagetrack hook"}]}
	]}}`)

	res, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Len(t, commands(doc, "Stop"), 4)
}

func TestMerge_KeepsOnlyFirstExactGroup(t *testing.T) {
	group := `{"matcher":"","hooks":[{"type":"command","command":"` + cmdB + `"}]}`
	doc := mustParse(t, `{"hooks":{"Stop":[`+group+`,`+group+`]}}`)

	res, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.True(t, res.AlreadyPresent)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{cmdB}, commands(doc, "Stop"))
}

func TestMerge_PassesThroughUnrecognizedEntries(t *testing.T) {
	doc := mustParse(t, `{"hooks":{"Stop":[
		"CLAUDE_HOOK_TYPE=Stop usagetrack hook",
		{"matcher":"","command":"CLAUDE_HOOK_TYPE=Stop usagetrack hook"},
		42
	]}}`)

	res, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)

	entries := doc.Entries("Stop")
	require.Len(t, entries, 4)
	assert.Nil(t, entries[0].Group)
	assert.JSONEq(t, `"CLAUDE_HOOK_TYPE=Stop usagetrack hook"`, string(entries[0].Raw))
	assert.Nil(t, entries[1].Group)
	assert.JSONEq(t, `42`, string(entries[2].Raw))
	require.NotNil(t, entries[3].Group)
}

func TestMerge_LeavesOtherKeysAndEvents(t *testing.T) {
	input := `{
		"permissions": {"allow": ["Bash(go test:*)"]},
		"hooks": {
			"PreToolUse": [{"matcher": "Bash", "hooks": [{"type": "command", "command": "CLAUDE_HOOK_TYPE=Stop usagetrack hook", "timeout": 30}]}],
			"Custom": {"not": "an array"}
		}
	}`
	doc := mustParse(t, input)

	_, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(mustBytes(t, doc), &got))

	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(input), &want))

	assert.Equal(t, want["permissions"], got["permissions"])
	hooks := got["hooks"].(map[string]any)
	wantHooks := want["hooks"].(map[string]any)
	assert.Equal(t, wantHooks["PreToolUse"], hooks["PreToolUse"])
	assert.Equal(t, wantHooks["Custom"], hooks["Custom"])
	assert.Len(t, hooks["Stop"], 1)
}

func TestMerge_NonArrayEventIsReplaced(t *testing.T) {
	doc := mustParse(t, `{"hooks":{"Stop":{"matcher":""}}}`)

	res, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, []string{cmdB}, commands(doc, "Stop"))
}

func TestMerge_GoldenStaleStop(t *testing.T) {
	input := `{
  // personal overrides
  "model": "opus",
  "hooks": {
    "Stop": [
      {"matcher": "", "hooks": [{"type": "command", "command": "CLAUDE_HOOK_TYPE=Stop python3 /home/u/.claude/scripts/usage-tracker.py"}]},
      {"matcher": "", "hooks": [{"type": "command", "command": "notify-send done && echo <ok>"}]},
      "opaque-entry",
    ],
    "PreToolUse": [
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "echo pre", "timeout": 5}]}
    ]
  }
}`
	doc := mustParse(t, input)

	_, err := hookconfig.NewMerger().Merge(doc, "Stop", cmdB)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "merge_stale_stop", mustBytes(t, doc))
}

func TestMerge_GoldenAllKinds(t *testing.T) {
	doc := mustParse(t, "{}")
	m := hookconfig.NewMerger()

	for _, kind := range domain.HookKinds {
		_, err := m.Merge(doc, string(kind), hookconfig.BindingCommand(m.TypeEnv, kind, binary))
		require.NoError(t, err)
	}

	g := goldie.New(t)
	g.Assert(t, "merge_all_kinds", mustBytes(t, doc))
}
